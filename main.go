package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/deathrjj/age-github-search-tui/config"
	"github.com/deathrjj/age-github-search-tui/encryption"
	"github.com/deathrjj/age-github-search-tui/github"
	"github.com/deathrjj/age-github-search-tui/logger"
	"github.com/deathrjj/age-github-search-tui/metrics"
	"github.com/deathrjj/age-github-search-tui/search"
	"github.com/deathrjj/age-github-search-tui/ui"
)

func main() {
	configPath := flag.String("config", config.PathFromEnv(), "path to YAML config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Env, cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	metrics.RegisterSearchMetrics()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := github.NewClient(github.Config{
		BaseURL:           cfg.GitHub.BaseURL,
		Timeout:           cfg.GitHub.Timeout(),
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		UserAgent:         cfg.GitHub.UserAgent,
	}, nil, log.Named("github"))

	session := search.NewSession(client, search.Options{
		Timeout:              cfg.GitHub.Timeout(),
		NotificationDuration: cfg.Notifications.Duration(),
		ExceededDuration:     cfg.Notifications.ExceededDuration(),
		RateLimitWarning:     cfg.Notifications.RateLimitWarning,
		RateLimitExceeded:    cfg.Notifications.RateLimitExceeded,
	}, log.Named("session"))
	defer session.Close()

	app := tview.NewApplication()
	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	searchUI := ui.NewSearchUI(app, session, client,
		gateConfig(cfg.Search.Typing), gateConfig(cfg.Search.Deleting),
		cfg.UI.DemoMode, log.Named("ui"))
	defer searchUI.Close()

	// Check if there's an age file in the clipboard
	var decryptUI *ui.DecryptionUI
	if encryptedText, found := encryption.CheckClipboardForAgeFile(); found {
		decryptUI = ui.NewDecryptionUI(app, encryptedText, cfg.Age.PrivateKeyPath,
			func() { searchUI.Start(ctx) }, log.Named("decrypt"))
		decryptUI.PromptForDecryption()
	} else {
		searchUI.Start(ctx)
	}

	log.Info("Starting UI", zap.String("env", cfg.Env), zap.String("github", cfg.GitHub.BaseURL))
	if err := app.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}

	switch {
	case decryptUI != nil && decryptUI.Output != "":
		fmt.Println("Decrypted message:")
		fmt.Println(decryptUI.Output)
	case searchUI.Output != "":
		fmt.Println(searchUI.Output)
		fmt.Fprintln(os.Stderr, "(copied to clipboard)")
	}
	return nil
}

func gateConfig(g config.GateConfig) search.GateConfig {
	return search.GateConfig{
		Delay:      g.Delay(),
		MinLength:  g.MinLength,
		MaxLength:  g.MaxLength,
		AllowEmpty: g.AllowEmpty,
	}
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
