// Package main provides the cachesim command line.
//
// Usage:
//
//	cachesim run <config> <trace> [flags]
//	cachesim decode <config> <address>
//	cachesim config example [--out path]
//	cachesim gen <pattern> [--count N] [--out path]
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
