package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/recording"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/trace"
)

const defaultSeed = 1

type runOptions struct {
	format         string
	seed           int64
	seedSet        bool
	splitAccesses  bool
	skipMalformed  bool
	parallel       bool
	record         string
	recordAccesses bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <config> <trace>",
		Short: "Simulate a trace on the configured caches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runSimulation(ctx, opts, args[0], args[1], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format (text, json, yaml)")
	cmd.Flags().Int64Var(&opts.seed, "seed", defaultSeed,
		"Seed for random replacement (overrides the config file)")
	cmd.Flags().BoolVar(&opts.splitAccesses, "split-accesses", false,
		"Access every cache line an access spans instead of only the first")
	cmd.Flags().BoolVar(&opts.skipMalformed, "skip-malformed", false,
		"Skip malformed trace records instead of stopping")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", false,
		"Simulate each cache on its own goroutine")
	cmd.Flags().StringVar(&opts.record, "record", "",
		"Record results into this SQLite file")
	cmd.Flags().BoolVar(&opts.recordAccesses, "record-accesses", false,
		"Also record every access (implies --record)")

	return cmd
}

func runSimulation(
	ctx context.Context,
	opts *runOptions,
	configPath, tracePath string,
	out io.Writer,
) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	configs, err := cfg.CacheConfigs()
	if err != nil {
		return err
	}

	seed := int64(defaultSeed)
	switch {
	case opts.seedSet:
		seed = opts.seed
	case cfg.Seed != nil:
		seed = *cfg.Seed
	}

	caches, err := simulation.BuildCaches(configs, seed)
	if err != nil {
		return err
	}

	info := recording.RunInfo{
		RunID:     recording.NewRunID(),
		Config:    configPath,
		Trace:     tracePath,
		StartTime: time.Now(),
	}

	var (
		recorder   *recording.Recorder
		accessHook *recording.AccessHook
	)

	if opts.record != "" || opts.recordAccesses {
		recorder, err = recording.New(opts.record)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := recorder.Close(); cerr != nil {
				logrus.WithError(cerr).Error("failed to close recording database")
			}
		}()

		logrus.WithField("path", recorder.Path()).Debug("recording enabled")

		if opts.recordAccesses {
			accessHook, err = recording.NewAccessHook(recorder, info.RunID)
			if err != nil {
				return err
			}

			for _, c := range caches {
				c.AcceptHook(accessHook)
			}
		}
	}

	reader, err := trace.Open(tracePath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	simOpts := []simulation.Option{simulation.WithLogger(logrus.StandardLogger())}
	if opts.splitAccesses {
		simOpts = append(simOpts, simulation.WithSplitAccesses())
	}
	if opts.skipMalformed {
		simOpts = append(simOpts, simulation.WithSkipMalformed())
	}
	if opts.parallel {
		simOpts = append(simOpts, simulation.WithParallel())
	}

	result, err := simulation.New(caches, simOpts...).Run(ctx, reader)
	if err != nil {
		// Access rows already written belong to a run that must be marked
		// incomplete.
		if recorder != nil {
			rerr := recording.RecordReport(recorder, info, report.Build(result, caches))
			if rerr != nil {
				logrus.WithError(rerr).Error("failed to record incomplete run")
			}
		}

		return fmt.Errorf("simulation of %s failed: %w", tracePath, err)
	}

	if accessHook != nil {
		if err := accessHook.Err(); err != nil {
			return fmt.Errorf("failed to record accesses: %w", err)
		}
	}

	rep := report.Build(result, caches)

	if recorder != nil {
		if err := recording.RecordReport(recorder, info, rep); err != nil {
			return fmt.Errorf("failed to record report: %w", err)
		}
	}

	return report.Write(out, rep, format)
}
