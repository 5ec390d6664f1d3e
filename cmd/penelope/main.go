// Command penelope prepares inputs for the PENELOPE programs, runs them and
// reads back their results.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pymontecarlo/gopenelopetools/config"
)

var (
	verbose    bool
	configFile string

	logger *zap.Logger
	conf   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "penelope",
	Short: "Inputs, runs and results of the PENELOPE programs",
	Long: `penelope writes and reads PENELOPE geometry and input files, runs the
material and penepma programs in their own work directories and reads the
reports they leave.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err = newLogger(conf.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("configuration", zap.String("file", configFile), zap.String("workdir", conf.WorkDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format != "" {
		zc.Encoding = lc.Format
	}
	if lc.Format == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func defaultConfigFile() string {
	if f := os.Getenv("PENELOPE_CONFIG"); f != "" {
		return f
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "penelope.yaml"
	}
	return filepath.Join(dir, "penelope", "config.yaml")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile(), "Configuration file")

	rootCmd.AddCommand(configCmd, runCmd, materialCmd, geometryCmd, spectrumCmd, summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
