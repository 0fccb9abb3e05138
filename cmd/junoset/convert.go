package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asadarafat/junoset/setconv"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert configuration locally without contacting a device",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "text <file|->",
		Short: "Convert indented configuration text to set commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			for _, c := range converter().TextToSet(text) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "diff <file|->",
		Short: "Convert the added lines of a configuration diff to set commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if out := converter().DiffToSet(diff); out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	})

	return cmd
}

func converter() *setconv.Converter {
	return setconv.New(setconv.WithObserver(setconv.LogObserver(log.StandardLogger())))
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
