package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/solvari/radar/pkg/classifier"
	"github.com/solvari/radar/pkg/config"
	"github.com/solvari/radar/pkg/db"
	"github.com/solvari/radar/pkg/outreach"
	"github.com/solvari/radar/pkg/pipeline"
	"github.com/solvari/radar/pkg/scraper"
	"github.com/solvari/radar/pkg/sources"
	"github.com/solvari/radar/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`

	Scan struct {
		Categories []string `long:"category" description:"marktplaats category to scan (repeatable, empty means all)"`
		NoOutreach bool     `long:"no-outreach" description:"skip outreach generation for scanned profiles"`
	} `group:"scan" namespace:"scan" env-namespace:"SCAN"`
	ScanOnly bool `long:"scan-only" description:"run a discovery scan and exit instead of serving"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] failed to load config: %v", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, opts.NoColor, apiKeys(cfg)...)

	log.Printf("[INFO] starting radar version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, &opts); err != nil {
		log.Printf("[ERROR] radar failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires the components together and either serves HTTP or executes a
// one-shot discovery scan
func run(ctx context.Context, cfg *config.Config, opts *Opts) error {
	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close database: %v", closeErr)
		}
	}()

	cls := classifier.New(cfg.GetLLMConfig())
	gen := outreach.NewGenerator()
	scr := scraper.New(cfg.GetScraperConfig())

	proc := pipeline.NewProcessor(pipeline.Config{
		Scraper:    scr,
		Classifier: cls,
		Generator:  gen,
		Store:      database,
		MaxWorkers: cfg.Scraper.MaxConcurrent,
	})

	if opts.ScanOnly {
		return runScan(ctx, cfg, proc, opts)
	}

	srv := server.New(cfg, database, proc, cls, gen, revision, opts.Debug)
	return srv.Run(ctx)
}

// runScan discovers listings on marktplaats and feeds them through the pipeline
func runScan(ctx context.Context, cfg *config.Config, proc *pipeline.Processor, opts *Opts) error {
	source := sources.NewMarktplaats(cfg.Sources)

	listings, err := source.Discover(ctx, opts.Scan.Categories)
	if err != nil {
		return fmt.Errorf("discover listings: %w", err)
	}
	if len(listings) == 0 {
		log.Print("[WARN] no listings discovered, nothing to do")
		return nil
	}

	results := proc.Process(ctx, sources.URLs(listings), "marktplaats", !opts.Scan.NoOutreach)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	log.Printf("[INFO] scan complete: %d/%d profiles created", succeeded, len(results))
	return nil
}

// apiKeys collects configured provider keys so the logger can mask them
func apiKeys(cfg *config.Config) []string {
	var keys []string
	for _, p := range cfg.LLM.Providers {
		if strings.TrimSpace(p.APIKey) != "" {
			keys = append(keys, p.APIKey)
		}
	}
	return keys
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug)
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
