package main

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asadarafat/junoset/netmigo"
)

// Configuration keys shared by flags, junoset.yaml and JUNOSET_* variables.
const (
	keyConfig   = "config"
	keyLogLevel = "log-level"
	keyCSV      = "csv"
	keyUsername = "username"
	keyPassword = "password"
	keySSHPort  = "ssh-port"
	keyTimeout  = "timeout"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "junoset",
		Short: "Render Junos configuration snippets as set commands",
		Long: `junoset loads configuration snippets into the candidate configuration of
Junos devices, saves the result as set commands and copies it back over SCP.

Snippets are read from <configs>/<hostname>/*.config for every device listed
in the CSV inventory (columns: hostname, mgmt_ip). Rendered files are saved to
<output>/<hostname>/<name>.set.config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyConfig, "", "config file (default ./junoset.yaml if present)")
	flags.String(keyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(keyCSV, "devices.csv", "CSV file with hostname and mgmt_ip columns")
	flags.String(keyUsername, "", "device username")
	flags.String(keyPassword, "", "device password")
	flags.Uint16(keySSHPort, netmigo.DefaultSSHPort, "SSH port for the CLI and file transfer")
	flags.Uint8(keyTimeout, netmigo.DefaultTimeout, "connect timeout in seconds")
	_ = v.BindPFlags(flags)

	root.AddCommand(newRunCmd(v), newConvertCmd(), newEnableNETCONFCmd(v))
	return root
}

func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix("JUNOSET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("junoset")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		log.Infof("Using config file %s", v.ConfigFileUsed())
	}

	level, err := log.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

func credentials(v *viper.Viper) (string, string, error) {
	username, password := v.GetString(keyUsername), v.GetString(keyPassword)
	if username == "" {
		return "", "", errors.New("username required: use --username or JUNOSET_USERNAME")
	}
	return username, password, nil
}
