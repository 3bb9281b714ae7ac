package main

import (
	"os"

	"github.com/resistx/platform/pkg/common/logger"
)

func main() {
	logger.Configure(os.Stderr, os.Getenv("LOG_LEVEL"))
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
