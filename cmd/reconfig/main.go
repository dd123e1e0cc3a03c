// Package main is the entry point for the reconfig reconciliation tool.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/reconfig/internal/config"
	"github.com/dshills/reconfig/internal/config/notify"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	auxDir     string
	importPath string
	check      bool
	watch      bool
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, showVersion := parseFlags()

	if showVersion {
		fmt.Printf("reconfig %s (%s, built %s)\n", version, commit, date)
		return 0
	}

	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	notifier := notify.New()
	defer notifier.Close()
	notifier.Subscribe(func(c notify.Change) {
		logger.Info("config change", "field", c.Path, "type", c.Type.String(), "source", c.Source)
	})

	eng := config.New(
		config.WithLogger(logger),
		config.WithNotifier(notifier),
		config.WithMigrator(config.DefaultMigrator()),
		config.WithEnvPrefix("RECONFIG_"),
	)

	if opts.importPath != "" {
		ok, err := eng.Import(opts.importPath, opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: import failed: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Nothing imported")
			return 1
		}
		fmt.Printf("Imported %s into %s\n", opts.importPath, opts.configPath)
		return 0
	}

	if opts.auxDir != "" {
		docs, err := eng.ReadAll(opts.auxDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		for _, d := range docs {
			fmt.Println(d.Path)
		}
		return 0
	}

	doc, err := eng.Read(opts.configPath)
	if err != nil {
		if errors.Is(err, config.ErrUnrecoverable) {
			fmt.Fprintf(os.Stderr, "Warning: %s could not be recovered, using defaults\n", opts.configPath)
			doc = config.DefaultDocument()
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if doc == nil {
		if opts.check {
			fmt.Fprintf(os.Stderr, "No configuration at %s\n", opts.configPath)
			return 1
		}
		doc = config.DefaultDocument()
		if err := eng.Write(opts.configPath, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating %s: %v\n", opts.configPath, err)
			return 1
		}
		fmt.Printf("Created %s\n", opts.configPath)
	}

	if opts.check {
		fmt.Printf("%s is valid\n", opts.configPath)
		return 0
	}

	out, _ := json.MarshalIndent(doc, "", "  ")
	fmt.Println(string(out))

	if opts.watch {
		w, err := eng.Watch(opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: watch failed: %v\n", err)
			return 1
		}
		defer w.Close()

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
	}

	return 0
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "reconfig.json", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "reconfig.json", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.auxDir, "dir", "", "Read all configuration documents in a directory")
	flag.StringVar(&opts.importPath, "import", "", "Import a legacy configuration file")
	flag.BoolVar(&opts.check, "check", false, "Validate the configuration and exit")
	flag.BoolVar(&opts.watch, "watch", false, "Watch the configuration for external changes")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	return opts, showVersion
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
