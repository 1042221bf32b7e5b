package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with cache configuration files",
	}

	var (
		outPath string
		asYAML  bool
	)

	example := &cobra.Command{
		Use:   "example",
		Short: "Write a sample configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeExample(outPath, asYAML, cmd.OutOrStdout())
		},
	}

	example.Flags().StringVar(&outPath, "out", "",
		"Write to this file instead of stdout (.yaml/.yml selects YAML)")
	example.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")

	cmd.AddCommand(example)

	return cmd
}

func writeExample(outPath string, asYAML bool, out io.Writer) error {
	f := config.Example()

	if outPath == "" {
		return f.Encode(out, asYAML)
	}

	if err := f.Save(outPath); err != nil {
		return err
	}

	logrus.Infof("Example configuration written to %s", outPath)
	_, err := fmt.Fprintln(out, outPath)

	return err
}
