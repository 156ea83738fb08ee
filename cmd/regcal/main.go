package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"regcal/internal/capture"
	"regcal/internal/config"
	appLog "regcal/internal/log"
	"regcal/internal/semester"
	"regcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	doCapture  bool
	dump       bool
	debug      bool
}

func main() {
	appLog.Info("regcal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"cache_dir", conf.CacheDir,
		"refresh", conf.RefreshCron,
		"semester_count", len(conf.Semesters),
		"active", conf.Active,
		"once", flags.once,
	)

	if len(conf.Semesters) == 0 {
		appLog.Error("no semester sources configured", errors.New("empty semesters list"), "config_path", flags.configPath)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := semester.NewFetcher(filepath.Join(conf.CacheDir, "doc-cache"))
	srv := web.NewServer(conf, fetcher)
	if err := srv.Init(ctx); err != nil {
		appLog.Error("failed to load initial data", err)
		os.Exit(1)
	}

	if flags.once {
		if err := runOnce(ctx, conf, srv, flags); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		appLog.Info("regcal exiting")
		return
	}

	// Periodic source refresh.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, time.Minute)
		defer refreshCancel()
		srv.Refresh(refreshCtx)
	}); err != nil {
		appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if err := web.StartServer(ctx, conf, srv); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("regcal exiting")
}

// runOnce renders the grid to disk artifacts and optionally captures a
// PNG via a temporary listener, then exits.
func runOnce(ctx context.Context, conf *config.Config, srv *web.Server, flags flagConfig) error {
	if err := os.MkdirAll(conf.CacheDir, 0o700); err != nil {
		return err
	}

	grid := srv.Grid()
	data, err := json.MarshalIndent(grid, "", "  ")
	if err != nil {
		return err
	}
	gridPath := filepath.Join(conf.CacheDir, "grid.json")
	if err := os.WriteFile(gridPath, data, 0o644); err != nil {
		return err
	}
	appLog.Info("grid written", "path", gridPath, "weeks", grid.DisplayedWeeks)

	if flags.dump {
		if err := dumpClassDays(conf, srv); err != nil {
			return err
		}
	}

	if !flags.doCapture {
		return nil
	}

	// Temporary listener for the capture pass.
	httpSrv := &http.Server{Addr: conf.Listen, Handler: srv.Handler()}
	go func() {
		_ = httpSrv.ListenAndServe()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	out := filepath.Join(conf.CacheDir, "preview.png")
	err = capture.GridPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/calendar",
		OutputPath: out,
		Width:      conf.Preview.Width,
		Height:     conf.Preview.Height,
	})
	if err != nil {
		return err
	}
	appLog.Info("preview captured", "path", out)
	return nil
}

func dumpClassDays(conf *config.Config, srv *web.Server) error {
	sem := srv.Semester()
	if sem == nil {
		return nil
	}
	counts := semester.CountClassDays(sem)
	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(conf.CacheDir, "classdays.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	appLog.Info("class days written", "path", path, "total", counts.Total)
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/regcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Render once, write artifacts and exit")
	flag.BoolVar(&cfg.doCapture, "capture", false, "With -once: capture a PNG preview of /calendar")
	flag.BoolVar(&cfg.dump, "dump", false, "With -once: also write classdays.json")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
