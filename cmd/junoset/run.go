package main

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asadarafat/junoset/inventory"
	"github.com/asadarafat/junoset/netmigo"
	"github.com/asadarafat/junoset/report"
	"github.com/asadarafat/junoset/setconv"
	"github.com/asadarafat/junoset/workflow"
)

const (
	keyConfigs   = "configs"
	keyOutput    = "output"
	keyRemoteDir = "remote-dir"
	keyPort      = "port"
	keySource    = "source"
	keyRetries   = "retries"
	keyWorkers   = "workers"
	keyCommit    = "commit"
	keyReport    = "report"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render every snippet of every device in the inventory",
		Long: `Render every snippet of every device in the inventory.

For each snippet the candidate configuration is locked, the snippet is
loaded, set commands are produced according to --source and staged in
--remote-dir on the device. The candidate is then rolled back (or committed
with --commit) and the staged file is copied to the output directory.

Sources:
  device  candidate rendered by the device in set format
  diff    candidate diff converted locally
  text    snippet converted locally, the device only validates it`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String(keyConfigs, workflow.DefaultConfigDir, "directory with one sub-directory of snippets per hostname")
	flags.String(keyOutput, workflow.DefaultOutputDir, "directory for rendered files")
	flags.String(keyRemoteDir, workflow.DefaultRemoteDir, "device directory for staged files")
	flags.Uint16(keyPort, netmigo.DefaultNETCONFPort, "NETCONF port")
	flags.String(keySource, string(workflow.DefaultSource), "set command source: device, diff or text")
	flags.Int(keyRetries, workflow.DefaultMaxRetries, "retries per device operation")
	flags.Int(keyWorkers, workflow.DefaultWorkers, "devices processed concurrently")
	flags.Bool(keyCommit, false, "commit snippets instead of rolling them back")
	flags.String(keyReport, "", "JSON report path (default <output>/report.json)")
	_ = v.BindPFlags(flags)

	return cmd
}

func runRender(cmd *cobra.Command, v *viper.Viper) error {
	username, password, err := credentials(v)
	if err != nil {
		return err
	}
	source, err := workflow.ParseSource(v.GetString(keySource))
	if err != nil {
		return err
	}

	csvFile := v.GetString(keyCSV)
	outputDir := v.GetString(keyOutput)
	log.Info("Starting Juniper configuration processing")
	log.Infof("CSV file: %s", csvFile)
	log.Infof("Config directory: %s", v.GetString(keyConfigs))
	log.Infof("Output directory: %s", outputDir)

	devices, err := inventory.ReadDevices(csvFile)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		log.Warn("No devices found, exiting")
		return nil
	}

	dialer := &netmigo.JunosDialer{
		Username:    username,
		Password:    password,
		NETCONFPort: uint16(v.GetUint(keyPort)),
		SSHPort:     uint16(v.GetUint(keySSHPort)),
		Timeout:     uint8(v.GetUint(keyTimeout)),
	}
	runner := workflow.New(workflow.JunosDial(dialer),
		workflow.ConfigDir(v.GetString(keyConfigs)),
		workflow.OutputDir(outputDir),
		workflow.RemoteDir(v.GetString(keyRemoteDir)),
		workflow.WithSource(source),
		workflow.CommitChanges(v.GetBool(keyCommit)),
		workflow.MaxRetries(v.GetInt(keyRetries)),
		workflow.Workers(v.GetInt(keyWorkers)),
		workflow.WithObserver(setconv.LogObserver(log.StandardLogger())),
	)

	rep, runErr := runner.Run(cmd.Context(), devices)

	reportPath := v.GetString(keyReport)
	if reportPath == "" {
		reportPath = filepath.Join(outputDir, "report.json")
	}
	if err := rep.WriteFile(reportPath); err != nil {
		log.Errorf("Failed to write report: %v", err)
	} else {
		doc, _ := rep.JSON()
		totals := report.Summary(doc)
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d, no changes: %d, failed: %d (report: %s)\n",
			totals.OK, totals.NoChanges, totals.Failed, reportPath)
	}

	if runErr != nil {
		return runErr
	}
	if rep.Count(report.StatusFailed) > 0 {
		return fmt.Errorf("%d snippet(s) failed", rep.Count(report.StatusFailed))
	}
	log.Info("Script completed")
	return nil
}
