package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/benchmarks"
	"github.com/sarchlab/cachesim/trace"
)

func newGenCmd() *cobra.Command {
	var (
		count   uint64
		outPath string
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "gen <pattern>",
		Short: "Write a synthetic trace",
		Long: "Write a synthetic trace. Patterns: " +
			strings.Join(benchmarks.WorkloadNames(), ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateTrace(args[0], count, seed, outPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint64Var(&count, "count", 100000, "Number of records")
	cmd.Flags().StringVar(&outPath, "out", "",
		"Write to this file instead of stdout (.gz and .zst are compressed)")
	cmd.Flags().Int64Var(&seed, "seed", defaultSeed, "Seed for random patterns")

	return cmd
}

func generateTrace(pattern string, count uint64, seed int64, outPath string, out io.Writer) error {
	w, ok := benchmarks.LookupWorkload(pattern)
	if !ok {
		return fmt.Errorf("unknown pattern %q (available: %s)",
			pattern, strings.Join(benchmarks.WorkloadNames(), ", "))
	}

	if outPath == "" {
		return benchmarks.Generate(trace.NewWriter(out), w, count, seed)
	}

	tw, err := trace.Create(outPath)
	if err != nil {
		return err
	}

	if err := benchmarks.Generate(tw, w, count, seed); err != nil {
		_ = tw.Close()
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}

	logrus.Infof("Wrote %d %s records to %s", count, pattern, outPath)

	return nil
}
