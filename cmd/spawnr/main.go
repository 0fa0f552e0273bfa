package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
}

// RunFlags holds flags for the run command.
type RunFlags struct {
	Name       string
	WorkDir    string
	Env        []string
	NewSession bool
	SetPgid    bool
	LogDir     string
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
}

// buildRoot creates the root command and wires every subcommand.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	runFlags := &RunFlags{}
	serveFlags := &ServeFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createRunCommand(globalFlags, runFlags),
		createServeCommand(globalFlags, serveFlags),
		createDecodeCommand(),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "spawnr",
		Short: "Process launching tool",
		Long: `Spawnr launches child processes with explicit control over their
environment, identity, session/group placement and stdio, then reaps
them and decodes the wait status.

Examples:
  spawnr run --name=job -- /usr/bin/python3 script.py
  spawnr run --config=spawnr.toml --name=web
  spawnr serve --config=spawnr.toml
  spawnr decode 0x8b00`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	return root
}
