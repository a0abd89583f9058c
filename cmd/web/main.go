package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"image/png"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/snapshot"
	"github.com/tomz197/starfield/internal/starfield"
)

//go:embed index.html
var htmlPage string

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "starfield web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logCfg config.Log
		webCfg config.Web
		sfCfg  config.Starfield
	)
	for _, target := range []any{&logCfg, &webCfg, &sfCfg} {
		if err := config.ParseEnv(target); err != nil {
			return err
		}
	}

	logger, closeLog, err := config.NewLogger(logCfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	addr := net.JoinHostPort(webCfg.Host, webCfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(webCfg, sfCfg.Overrides(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting web server", "addr", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newMux(cfg config.Web, base starfield.Overrides, logger *log.Logger) *http.ServeMux {
	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", cfg.SSHHost)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("GET /frame.png", func(w http.ResponseWriter, r *http.Request) {
		serveFrame(w, r, cfg, base, logger)
	})
	return mux
}

func serveFrame(w http.ResponseWriter, r *http.Request, cfg config.Web, base starfield.Overrides, logger *log.Logger) {
	req, err := parseFrameQuery(r.URL.Query(), cfg, base)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	img, err := snapshot.Render(req, logger)
	if err != nil {
		if errors.Is(err, draw.ErrInvalidColor) || errors.Is(err, snapshot.ErrInvalidSize) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("Render failed", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		logger.Error("Encode failed", "err", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	logger.Debug("Rendered frame",
		"size", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"frames", req.Frames,
		"seed", req.Seed,
		"took", time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(buf.Bytes())
}
