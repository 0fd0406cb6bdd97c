package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "intakewizard",
	Short: "Puppy adoption intake wizard",
	Long: `intakewizard walks applicants through a four step puppy adoption
application: identity, preferences, household and agreements. Each step is
validated before the next one opens, drafts survive restarts and the finished
application is sent to a submission gateway.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(newLogger(cfg.Log))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.ProjectPath()+")")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

func newLogger(lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", s)
		return slog.LevelInfo
	}
	return level
}
