package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/civis/internal/models"
	cfgPkg "github.com/xhad/civis/pkg/config"
	"github.com/xhad/civis/pkg/evaluator"
	"github.com/xhad/civis/pkg/indexer"
	"github.com/xhad/civis/pkg/logger"
	"github.com/xhad/civis/pkg/server"
	"github.com/xhad/civis/pkg/verdict"
)

type Options struct {
	ConfigPath string
	URL        string
	Index      bool
	Serve      bool
	LogLevel   string
	NoColor    bool
}

func main() {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		if errors.Is(err, evaluator.ErrExtractionFailed) {
			color.Red("Error: %v", err)
			os.Exit(1)
		}
		log.Fatal(err)
	}
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.URL, "url", "", "URL of the article to evaluate")
	flag.BoolVar(&opts.Index, "index", false, "Crawl the trusted sites into the semantic indices")
	flag.BoolVar(&opts.Serve, "serve", false, "Run the websocket server")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [url]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.URL == "" && flag.NArg() > 0 {
		opts.URL = flag.Arg(0)
	}
	return opts
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(ctx context.Context, opts Options) error {
	// .env is optional
	_ = godotenv.Load()

	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	logr := logger.NewLogger(cfg.Log.Level)
	if opts.LogLevel != "" {
		logr.SetLevel(opts.LogLevel)
	}

	switch {
	case opts.Index:
		return runIndex(ctx, cfg, logr)
	case opts.Serve:
		return runServer(ctx, cfg, logr)
	case opts.URL != "":
		return runEvaluate(ctx, cfg, logr, opts.URL)
	default:
		flag.Usage()
		return errors.New("a URL, -index or -serve is required")
	}
}

func runEvaluate(ctx context.Context, cfg *cfgPkg.Config, logr *logger.Logger, url string) error {
	app, err := buildApp(ctx, cfg, logr, false)
	if err != nil {
		return err
	}
	defer app.Close()

	spinner := getSpinner("Evaluating " + url)
	report, err := app.evaluator.EvaluateWithProgress(ctx, url, func(stage string) {
		spinner.Describe(color.CyanString(stage + "..."))
	})
	spinner.Finish()
	fmt.Fprint(os.Stderr, "\r")
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func runIndex(ctx context.Context, cfg *cfgPkg.Config, logr *logger.Logger) error {
	app, err := buildApp(ctx, cfg, logr, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(app.stores) == 0 {
		return errors.New("no semantic index configured: set database.url or chroma.host")
	}

	var pages int32
	crawler, err := newCrawler(cfg, logr, func(string) { atomic.AddInt32(&pages, 1) })
	if err != nil {
		return err
	}

	color.Blue("\nIndexing %d trusted sites\n", len(cfg.Sources.TrustedWebsites))

	bar := getProgressBar(-1, "Storing chunks...")
	startTime := time.Now()
	var stored int64
	ix := indexer.New(crawler, newProcessor(cfg), app.stores, indexer.Config{
		BatchSize: cfg.Database.BatchSize,
		Logger:    logr,
		OnStored: func(n int) {
			total := atomic.AddInt64(&stored, int64(n))
			_ = bar.Add(n)
			rate := float64(total) / time.Since(startTime).Seconds()
			bar.Describe(color.BlueString("Storing chunks... (%d pages, %.1f chunks/sec)", atomic.LoadInt32(&pages), rate))
		},
	})

	stats, err := ix.Index(ctx, cfg.Sources.TrustedWebsites)
	_ = bar.Finish()

	color.Green("\n✓ Indexed %d documents into %d chunks from %d sites\n", stats.Documents, stats.Chunks, stats.Sites)
	for _, name := range stats.FailedSites {
		color.Yellow("! Could not crawl %s\n", name)
	}
	if app.chroma != nil {
		if n, cerr := app.chroma.Count(ctx); cerr != nil {
			logr.Warn("chroma count failed", "error", cerr)
		} else {
			color.Green("✓ Chroma collection %q holds %d chunks\n", cfg.Chroma.Collection, n)
		}
	}
	return err
}

func runServer(ctx context.Context, cfg *cfgPkg.Config, logr *logger.Logger) error {
	app, err := buildApp(ctx, cfg, logr, false)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := server.NewWSServer(app.evaluator, server.Config{
		Timeout: 4 * cfg.Scraper.Timeout,
		Logger:  logr,
	})
	color.Cyan("Listening on :%s (websocket at /ws)", cfg.Server.Port)
	return srv.ListenAndServe(ctx, ":"+cfg.Server.Port)
}

// printReport prints the same lines as verdict.Render, coloured by finding kind.
func printReport(report *models.Report) {
	fmt.Println()
	for i, line := range verdict.Lines(report) {
		switch {
		case i == 0:
			color.New(color.Bold).Println(line.Text)
		case line.Source:
			fmt.Println(line.Text)
		default:
			findingColor(line.Kind).Println(line.Text)
		}
	}
}

func findingColor(kind models.FindingKind) *color.Color {
	switch kind {
	case models.FindingSupport, models.FindingCredibleElements:
		return color.New(color.FgGreen)
	case models.FindingBias, models.FindingQuestionable:
		return color.New(color.FgRed)
	case models.FindingUnverified, models.FindingMissingMetadata, models.FindingMissingQualification, models.FindingNoSupport:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}
