package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/momentproxy/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the global logger on stderr and, when logFile is
// set, mirrors it to that file. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return closer, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file.Close
	}

	if err := logger.InitWith(logger.Options{Output: out}); err != nil {
		_ = closer()
		return func() error { return nil }, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}
