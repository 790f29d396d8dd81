package main

import (
	"os"

	"loopy-client/src/config"
	"loopy-client/src/logger"
	"loopy-client/src/utils"
)

func main() {
	logger.InitDefaultLogger(logger.GlobalLoggerConfig{
		Args: []logger.LoggerArg{{Key: "service", Value: "loopy-client"}},
	})

	cfg, err := config.Load()
	utils.FailOnError(err, "Unable to load configuration")

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
