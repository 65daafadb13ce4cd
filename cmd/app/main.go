// Video Frame Studio - web demo for per-frame video filtering
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"video-frame-studio/internal/config"
	"video-frame-studio/internal/jobs"
	"video-frame-studio/internal/storage"
	"video-frame-studio/internal/video"
	"video-frame-studio/internal/web"
)

const (
	AppName    = "Video Frame Studio"
	AppVersion = "1.0.0"
)

func main() {
	// Parse command line flags
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	// Initialize logger
	logger := initLogger(*debugMode)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if !*debugMode {
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"listen":     cfg.ListenAddr,
	}).Info("Starting Video Frame Studio")

	store, err := storage.NewStore(cfg.UploadDir, cfg.ProcessedDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to prepare asset directories")
	}

	transformer := video.NewTransformer(logger, video.Options{FourCC: cfg.OutputFourCC})
	manager := jobs.NewManager(transformer, logger)
	server := web.NewServer(store, manager, logger, cfg.MaxUploadMB<<20)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	var group run.Group

	group.Add(func() error {
		logger.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		return httpServer.ListenAndServe()
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("HTTP server shutdown failed")
		}
	})

	janitor := cron.New()
	retention := time.Duration(cfg.RetentionHours) * time.Hour
	if _, err := janitor.AddFunc(cfg.SweepSchedule, func() {
		if _, err := store.Sweep(retention); err != nil {
			logger.WithError(err).Warn("asset sweep failed")
		}
	}); err != nil {
		logger.WithError(err).Fatal("Invalid sweep schedule")
	}
	group.Add(func() error {
		janitor.Run()
		return nil
	}, func(error) {
		<-janitor.Stop().Done()
	})

	group.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))

	if err := group.Run(); err != nil {
		if _, ok := err.(run.SignalError); !ok && err != http.ErrServerClosed {
			logger.WithError(err).Error("Service terminated with error")
			os.Exit(1)
		}
	}

	logger.Info("Application shutting down gracefully")
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
