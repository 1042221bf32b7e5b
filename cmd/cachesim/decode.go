package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/trace"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <config> <address>",
		Short: "Show how each configured cache splits an address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decodeAddress(args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func decodeAddress(configPath, addressText string, out io.Writer) error {
	address, err := trace.ParseAddress(addressText)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addressText, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	configs, err := cfg.CacheConfigs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CACHE\tTAG\tSET\tOFFSET\tBLOCK")

	for _, c := range configs {
		d, err := cache.NewDecoder(c.LineSize, c.NumSets())
		if err != nil {
			return err
		}

		a := d.Decode(address)
		_, _ = fmt.Fprintf(tw, "%s\t%#x\t%d\t%#x\t%#x\n",
			c.Name, a.Tag, a.SetIndex, a.Offset, d.BlockAddress(address))
	}

	return tw.Flush()
}
