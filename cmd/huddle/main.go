package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huddle/internal/account"
	"huddle/internal/api"
	"huddle/internal/config"
	"huddle/internal/crash"
	"huddle/internal/db"
	"huddle/internal/prefs"
	"huddle/internal/session"
)

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	store    *session.Persistent
	prefs    *prefs.Store
	services *api.Services
	account  *account.Service
	reporter *crash.Reporter
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open storage", "error", err, "path", cfg.Storage.Path)
		os.Exit(1)
	}
	defer database.Close()

	kv := db.NewKVStore(database)
	store, err := session.Open(ctx, kv)
	if err != nil {
		slog.Error("failed to load session", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, store,
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(logger),
	)
	services := api.NewServices(client)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      os.Stdout,
		store:    store,
		prefs:    prefs.New(kv, logger),
		services: services,
		account: account.New(services.Auth, services.Users, store, account.Config{
			LegacyAuthPaths: cfg.API.LegacyAuthPaths,
			Logger:          logger,
		}),
		reporter: crash.NewReporter(services.CrashReports, crash.Device{
			AppVersion: cfg.Device.AppVersion,
			Platform:   cfg.Device.Platform,
			Model:      cfg.Device.Model,
			OSVersion:  cfg.Device.OSVersion,
		}, store, logger),
	}
	defer a.reporter.Recover()

	if cfg.Metrics.Addr != "" {
		metricsServer := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	err = a.run(ctx, flag.Arg(0), flag.Args()[1:])
	a.reporter.Wait()
	if err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		if a.account.HandleUnauthorized(ctx, err) {
			fmt.Fprintln(os.Stderr, "Your session has ended, please log in again")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, api.Message(err))
		slog.Debug("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return server
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: huddle [-config path] <command> [flags]

commands:
  register        create an account and sign in
  login           sign in
  logout          sign out
  refresh         renew the access token
  whoami          show the signed-in user
  delete-account  delete the signed-in account
  categories      list activity categories
  activities      list activities
  create          create an activity
  join, leave     join or leave an activity
  participants    list an activity's participants
  chat            follow an activity's chat until interrupted
  send            send a chat message
  notifications   list notifications
  prefs           show or change preferences
  review          review an activity
  report          report an activity, message or user
  photos          list your profile photos
  upload-photo    shrink and upload a profile photo
`)
}
