// Package errors handles end-of-command error reporting: the log file gets
// the structured error, the user gets a one-line message.
package errors

import (
	"fmt"
	"os"

	"github.com/julianstephens/sproutbook/internal/logger"
)

// Fatal reports err to the log and stderr, then exits 1. A nil err is a
// no-op, so it can wrap the final Run call directly.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("command failed", "error", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
