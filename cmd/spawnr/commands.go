package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/loykin/spawnr"
	"github.com/loykin/spawnr/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// createRunCommand creates the run subcommand. It launches one child,
// waits for it, and mirrors the child's end in the CLI exit code:
// the exit code for a normal exit, 128+signal for a signaled child.
func createRunCommand(globalFlags *GlobalFlags, runFlags *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] -- PATH [ARGS...]",
		Short: "Launch one child and wait for it",
		Long: `Run launches a single child process and blocks until it is reaped.
With --config and --name the launch definition comes from the TOML file;
otherwise PATH and ARGS after "--" define an ad-hoc launch.

Examples:
  spawnr run --name=batch -- /usr/bin/python3 job.py --fast
  spawnr run --config=spawnr.toml --name=web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), globalFlags, runFlags, args)
		},
	}
	cmd.Flags().StringVar(&runFlags.Name, "name", "", "launch name (required with --config, optional ad-hoc)")
	cmd.Flags().StringVar(&runFlags.WorkDir, "work-dir", "", "working directory for the child")
	cmd.Flags().StringArrayVar(&runFlags.Env, "env", nil, "KEY=VALUE pairs layered over the inherited environment")
	cmd.Flags().BoolVar(&runFlags.NewSession, "new-session", false, "place the child in a new session")
	cmd.Flags().BoolVar(&runFlags.SetPgid, "set-pgid", false, "place the child in its own process group")
	cmd.Flags().StringVar(&runFlags.LogDir, "log-dir", "", "capture child stdout/stderr under this directory")
	return cmd
}

func runOnce(ctx context.Context, globalFlags *GlobalFlags, runFlags *RunFlags, args []string) error {
	spec, sink, err := resolveSpec(globalFlags, runFlags, args)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	log := logger.NewLogger(os.Stderr, logger.AppConfig{Level: globalFlags.LogLevel, Color: true})
	if err := spawnr.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	run := spawnr.NewRunner(log, sink)

	// SIGINT/SIGTERM cancel the run, which forwards termination to the child.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run.Run(ctx, *spec)
	if err != nil {
		return err
	}
	fmt.Printf("%s pid=%d outcome=%s code=%d duration=%s\n",
		spec.Name, res.Child.PID, res.Outcome, res.Code, res.Duration.Round(0))
	switch res.Outcome {
	case spawnr.OutcomeExited:
		if res.Code != 0 {
			_ = sink.Close()
			os.Exit(res.Code)
		}
	case spawnr.OutcomeSignaled:
		_ = sink.Close()
		os.Exit(128 + res.Code)
	}
	return nil
}

// resolveSpec builds the launch spec from the config file or the ad-hoc
// command line, plus the history sink the config names.
func resolveSpec(globalFlags *GlobalFlags, runFlags *RunFlags, args []string) (*spawnr.LaunchSpec, spawnr.HistorySink, error) {
	if globalFlags.ConfigPath != "" {
		cfg, err := spawnr.LoadConfig(globalFlags.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
		if runFlags.Name == "" {
			return nil, nil, fmt.Errorf("--name is required with --config")
		}
		spec, err := cfg.Find(runFlags.Name)
		if err != nil {
			return nil, nil, err
		}
		sink, err := spawnr.OpenHistory(cfg.HistoryDSN)
		if err != nil {
			return nil, nil, err
		}
		return spec, sink, nil
	}

	if len(args) == 0 {
		return nil, nil, fmt.Errorf("either --config or a command after -- is required")
	}
	name := runFlags.Name
	if name == "" {
		name = baseName(args[0])
	}
	spec := &spawnr.LaunchSpec{
		Name:       name,
		Path:       args[0],
		Args:       args[1:],
		WorkDir:    runFlags.WorkDir,
		Env:        runFlags.Env,
		NewSession: runFlags.NewSession,
		SetPgid:    runFlags.SetPgid,
	}
	if runFlags.LogDir != "" {
		spec.Capture = logger.CaptureConfig{Dir: runFlags.LogDir}
	}
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	sink, err := spawnr.OpenHistory("")
	if err != nil {
		return nil, nil, err
	}
	return spec, sink, nil
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// createServeCommand creates the serve subcommand: the config-driven HTTP
// API with metrics.
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the launch HTTP API",
		Long: `Serve starts an HTTP server exposing the configured launches:
POST /launch, GET /status, GET /history and GET /metrics.

Example:
  spawnr serve --config=spawnr.toml --listen=:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), globalFlags, serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&serveFlags.BasePath, "base-path", "", "URL base path (overrides config)")
	return cmd
}

func serve(ctx context.Context, globalFlags *GlobalFlags, serveFlags *ServeFlags) error {
	if globalFlags.ConfigPath == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := spawnr.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	listen := serveFlags.Listen
	if listen == "" {
		listen = cfg.Server.Listen
	}
	if listen == "" {
		listen = ":8080"
	}
	basePath := serveFlags.BasePath
	if basePath == "" {
		basePath = cfg.Server.BasePath
	}

	level := globalFlags.LogLevel
	if cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	log := logger.NewLogger(os.Stderr, logger.AppConfig{Level: level, Color: cfg.Log.Color})
	if err := spawnr.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	sink, err := spawnr.OpenHistory(cfg.HistoryDSN)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	run := spawnr.NewRunner(log, sink)
	run.SetGlobalEnv(cfg.Env)

	srv := spawnr.NewHTTPServer(listen, basePath, cfg, run, sink)
	log.Info("serving", "listen", listen, "base_path", basePath)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutting down")
	return srv.Close()
}

// createDecodeCommand creates the decode subcommand for inspecting raw
// wait status words.
func createDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode STATUS",
		Short: "Decode a raw wait status word",
		Long: `Decode interprets a raw wait status integer (decimal or 0x-prefixed
hex) and prints how the child ended.

Examples:
  spawnr decode 0        # exited code=0
  spawnr decode 9        # signaled signal=9
  spawnr decode 0x8b00   # exited code=139`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid status %q: %w", args[0], err)
			}
			outcome, code, err := spawnr.DecodeWaitStatus(uint32(raw))
			if err != nil {
				return err
			}
			switch outcome {
			case spawnr.OutcomeExited:
				fmt.Printf("exited code=%d\n", code)
			case spawnr.OutcomeSignaled:
				fmt.Printf("signaled signal=%d (%s)\n", code, syscall.Signal(code))
			case spawnr.OutcomeSuspended:
				fmt.Printf("suspended signal=%d (%s)\n", code, syscall.Signal(code))
			default:
				fmt.Printf("%s\n", outcome)
			}
			return nil
		},
	}
}
