package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/brenthale/elassandra/internal/app"
	"github.com/brenthale/elassandra/internal/config"
	"github.com/brenthale/elassandra/internal/logger"
	"github.com/brenthale/elassandra/internal/version"
)

func main() {
	vlog := log.New(log.Writer(), "", 0)

	var (
		showVersion bool
		configFile  string
		status      bool
		watch       bool
		trace       bool
		bodyArg     string
		paramArgs   []string
	)

	flags := pflag.NewFlagSet(version.Name, pflag.ExitOnError)
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	flags.StringVarP(&configFile, "config", "c", "", "path to config file")
	flags.BoolVar(&status, "status", false, "print pool status instead of performing a request")
	flags.BoolVarP(&watch, "watch", "w", false, "with --status, keep refreshing until interrupted")
	flags.BoolVar(&trace, "trace", false, "log every attempt as a replayable curl line")
	flags.StringVarP(&bodyArg, "data", "d", "", "request body: literal, @file or - for stdin")
	flags.StringArrayVarP(&paramArgs, "param", "p", nil, "query parameter key=value (repeatable)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] METHOD PATH\n       %s --status [--watch]\n\nFlags:\n%s",
			version.Name, version.Name, flags.FlagUsages())
	}
	_ = flags.Parse(os.Args[1:])

	if showVersion {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}
	version.PrintVersionInfo(false, vlog)

	application, cleanup := buildApplication(configFile, trace)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	application.Start(ctx)

	exitCode := 0
	switch {
	case status:
		runStatus(ctx, application, watch)
	default:
		if err := runRequest(ctx, application, flags.Args(), paramArgs, bodyArg); err != nil {
			slog.Error("Request failed", "error", err)
			exitCode = 1
		}
	}

	cancel()
	application.Stop()
	os.Exit(exitCode)
}

func buildApplication(configFile string, trace bool) (*app.Application, func()) {
	var application *app.Application

	cfg, err := config.Load(configFile, func() {
		if application != nil {
			application.ReloadNodes()
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if trace {
		cfg.Client.EnableTrace = true
		cfg.Logging.Level = logger.LogLevelDebug
	}

	logInstance, styledLogger, logCleanup, err := logger.NewWithTheme(&logger.Config{
		Level:      cfg.Logging.Level,
		Theme:      cfg.Logging.Theme,
		LogDir:     cfg.Logging.LogDir,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		FileOutput: cfg.Logging.FileOutput,
		PrettyLogs: cfg.Logging.PrettyLogs,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logInstance)

	application, err = app.New(cfg, styledLogger)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Failed to create application", "error", err)
	}
	return application, logCleanup
}

func runRequest(ctx context.Context, application *app.Application, args, paramArgs []string, bodyArg string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected METHOD PATH, got %d arguments", len(args))
	}

	params, err := parseParams(paramArgs)
	if err != nil {
		return err
	}
	body, err := app.ReadBodyArg(bodyArg)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	return application.Execute(ctx, args[0], args[1], params, body)
}

func runStatus(ctx context.Context, application *app.Application, watch bool) {
	application.PrintStatus()
	if !watch {
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			application.PrintStatus()
		}
	}
}

func parseParams(paramArgs []string) (map[string]string, error) {
	if len(paramArgs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(paramArgs))
	for _, arg := range paramArgs {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed query parameter %q, expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}
