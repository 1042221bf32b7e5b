package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "cachesim",
		Short: "Trace-driven cache simulator",
		Long: "cachesim replays a memory access trace against one or more " +
			"independently configured caches and reports hits and misses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %s", logLevel)
			}

			logrus.SetLevel(level)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (trace, debug, info, warn, error, fatal, panic)")

	root.AddCommand(
		newRunCmd(),
		newDecodeCmd(),
		newConfigCmd(),
		newGenCmd(),
	)

	return root
}
