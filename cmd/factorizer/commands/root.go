package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"factorizer/internal/logger"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:           "factorizer",
	Short:         "Computes, crosses and persists technical-analysis factors over OHLCV data",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetLevel(logLevel)
		if logFile == "" {
			return nil
		}
		f, err := openLogFile(logFile)
		if err != nil {
			return err
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
		return nil
	},
}

// Execute runs the CLI; a non-nil error means a non-zero exit status.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
