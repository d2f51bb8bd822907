package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/foomo/auditwalker"
	"github.com/foomo/auditwalker/config"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configFile string
	verbose    bool
)

// exit codes
const (
	exitFailed       = 1
	exitPrecondition = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "auditwalker",
		Short: "Audit every route of a web app in a real browser against UI invariants",
		Long: `auditwalker visits the routes of the manifest on mobile and desktop viewports,
waits for each page to settle and checks it for UI regressions, runtime errors and leaks.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a yaml config, environment variables win over it")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and config dump")

	rootCmd.AddCommand(
		newRunCmd(),
		newRoutesCmd(),
		newFixturesCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	exitErr := &exitError{}
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if auditwalker.IsPrecondition(err) {
		return exitPrecondition
	}
	return exitFailed
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig file, then environment
func loadConfig() (*config.Config, error) {
	conf := config.Default()
	if configFile != "" {
		fileConf, errConf := config.Get(configFile)
		if errConf != nil {
			return nil, &exitError{code: exitPrecondition, err: fmt.Errorf("config error: %w", errConf)}
		}
		conf = fileConf
	}
	conf.ApplyEnv(os.LookupEnv)
	if verbose {
		redacted := *conf
		if redacted.Session.CookieValue != "" {
			redacted.Session.CookieValue = "<redacted>"
		}
		spew.Dump(redacted)
	}
	return conf, nil
}
