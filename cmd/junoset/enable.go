package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asadarafat/junoset/inventory"
	"github.com/asadarafat/junoset/netmigo"
)

func newEnableNETCONFCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "enable-netconf",
		Short: "Enable NETCONF over SSH on every device through the CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := credentials(v)
			if err != nil {
				return err
			}
			devices, err := inventory.ReadDevices(v.GetString(keyCSV))
			if err != nil {
				return err
			}

			timeout := time.Duration(v.GetUint(keyTimeout)) * time.Second * 5
			failed := 0
			for _, dev := range devices {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := enableNETCONF(dev, username, password, uint16(v.GetUint(keySSHPort)), timeout); err != nil {
					log.WithField("host", dev.Hostname).Errorf("Failed to enable NETCONF: %v", err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: netconf enabled\n", dev.Hostname)
			}
			if failed > 0 {
				return fmt.Errorf("%d device(s) failed", failed)
			}
			return nil
		},
	}
}

func enableNETCONF(dev inventory.Device, username, password string, port uint16, timeout time.Duration) error {
	junos, err := netmigo.InitJUNOSDevice(dev.Addr(), username, password, port)
	if err != nil {
		return err
	}
	if err := junos.Connect(); err != nil {
		return err
	}
	defer junos.Disconnect()

	_, err = junos.EnableNETCONF(timeout)
	return err
}
