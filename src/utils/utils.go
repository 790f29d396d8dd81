package utils

import "loopy-client/src/logger"

// FailOnError aborts the process on startup errors that leave nothing to
// recover into.
func FailOnError(err error, msg string) {
	if err != nil {
		logger.Default().Fatal(err, msg)
	}
}
