package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/annotation"
	"github.com/ayusman/cosmozoom/internal/app"
	"github.com/ayusman/cosmozoom/internal/capture"
	"github.com/ayusman/cosmozoom/internal/config"
	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/log"
	"github.com/ayusman/cosmozoom/internal/render"
	"github.com/ayusman/cosmozoom/internal/server"
	"github.com/ayusman/cosmozoom/internal/store"
	"github.com/ayusman/cosmozoom/internal/tray"
	"github.com/ayusman/cosmozoom/internal/view"
	"github.com/ayusman/cosmozoom/internal/viewer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cosmozoom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(log.Options{Level: cfg.LogLevel, File: cfg.LogFile, Env: cfg.Env})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	kv, closeKV, err := openKV(cfg, logger)
	if err != nil {
		return err
	}
	defer closeKV()

	labels, err := annotation.New(kv)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}

	session := viewer.New(labels, viewer.ImagesFromPaths(cfg.Images),
		view.Rect{W: float64(cfg.CanvasWidth), H: float64(cfg.CanvasHeight)}, logger)
	defer session.Close()

	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger)
	if err != nil {
		logger.WithError(err).Warn("hand detector unavailable, gesture view will show no hands")
		det = detector.NewMockDetector()
	} else {
		det = mp
	}

	var overlay image.Image
	if cfg.OverlayImage != "" {
		img, err := render.LoadOverlay(cfg.OverlayImage)
		if err != nil {
			logger.WithError(err).WithField("path", cfg.OverlayImage).Warn("overlay image not loaded")
		} else {
			overlay = img
		}
	}

	gestures := app.New(app.Config{
		CanvasWidth:  cfg.CanvasWidth,
		CanvasHeight: cfg.CanvasHeight,
		Overlay:      overlay,
		Smoothing:    cfg.Smoothing,
		Logger:       logger,
	}, capture.NewCamera(cfg.CameraID, capture.WithSize(cfg.CanvasWidth, cfg.CanvasHeight)), det)
	defer gestures.Close()

	webDir := findWebDir(cfg.StaticDir)
	if webDir != "" {
		logger.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Viewer:    session,
		Gesture:   gestures,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe(cfg.Addr)
	}()

	if cfg.Tray {
		t := newTray(ctx, cfg, session, gestures, logger)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		go func() {
			if err := <-errc; err != nil {
				logger.WithError(err).Error("server failed")
				errc <- err
			}
			stop()
		}()
		t.OnQuit(stop)
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
		}
	}

	logger.Info("shutting down")
	gestures.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("server shutdown")
	}

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// openKV opens the label persistence backend named by cfg.Storage.
func openKV(cfg config.Config, logger *logrus.Logger) (annotation.KV, func(), error) {
	switch cfg.Storage {
	case config.StorageRedis:
		kv, err := store.NewRedisKV(store.RedisOptions{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil

	case config.StorageMemory:
		logger.Warn("labels are kept in memory and will not survive a restart")
		return annotation.NewMemoryKV(), func() {}, nil

	default:
		st, err := store.New(cfg.DBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("initialize store: %w", err)
		}
		logger.WithField("path", st.Path()).Info("label store opened")
		return st.KV(), func() { st.Close() }, nil
	}
}

func newTray(ctx context.Context, cfg config.Config, session *viewer.Session, gestures *app.App, logger *logrus.Logger) *tray.Tray {
	t := tray.New()

	t.OnToggle(func(enabled bool) error {
		if enabled {
			return gestures.Start(ctx)
		}
		gestures.Stop()
		return nil
	})
	t.OnReset(func() {
		if _, err := session.Handle(ctx, viewer.Event{Type: viewer.EventReset}); err != nil {
			logger.WithError(err).Warn("reset view")
		}
	})
	t.OnOpen(func() {
		logger.WithField("url", "http://"+cfg.Addr+"/").Info("viewer available")
	})

	gestures.Subscribe(func(u app.Update) {
		t.SetSignal(u.Signal)
	})
	return t
}

// findWebDir resolves the static file directory. A configured directory is
// used when it exists; otherwise "web", "../web", "../../web" and
// ~/.cosmozoom/web are tried in order. Returns "" if none exists.
func findWebDir(configured string) string {
	candidates := []string{configured, "web", "../web", "../../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".cosmozoom", "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
