package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/session"
	"github.com/tomz197/starfield/internal/starfield"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "starfield ssh: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logCfg  config.Log
		sshCfg  config.SSH
		termCfg config.Terminal
		sfCfg   config.Starfield
	)
	for _, target := range []any{&logCfg, &sshCfg, &termCfg, &sfCfg} {
		if err := config.ParseEnv(target); err != nil {
			return err
		}
	}

	logger, closeLog, err := config.NewLogger(logCfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	// Catch bad overrides before the first session does.
	if _, err := starfield.Defaults().Merge(sfCfg.Overrides()); err != nil {
		return err
	}

	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("Failed to get working directory", "err", workErr)
	}
	logger.Info("SSH config", "host", sshCfg.Host, "port", sshCfg.Port, "hostKeyPath", sshCfg.HostKeyPath, "workingDir", workingDir)

	h := &handler{
		logger:   logger,
		term:     termCfg,
		ssh:      sshCfg,
		sf:       sfCfg,
		shutdown: make(chan struct{}),
	}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(sshCfg.Host, sshCfg.Port)),
		wish.WithMiddleware(
			h.middleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if sshCfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(sshCfg.HostKeyPath))
	}

	srv, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting SSH server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// Sessions show a notice before they disconnect.
		close(h.shutdown)
		h.wait(sshCfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), sshCfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// handler runs one starfield per SSH session.
type handler struct {
	logger   *log.Logger
	term     config.Terminal
	ssh      config.SSH
	sf       config.Starfield
	shutdown chan struct{}
	sessions sync.WaitGroup
}

// wait blocks until every session ended or the timeout passed.
func (h *handler) wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.logger.Warn("Sessions still open after shutdown timeout", "timeout", timeout)
	}
}

func (h *handler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		h.sessions.Add(1)
		defer h.sessions.Done()

		logger := h.logger.With("user", sess.User(), "remote", sess.RemoteAddr())
		logger.Info("New session", "terminal", pty.Term, "size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		profile, forced := draw.ParseProfile(h.term.ColorProfile)
		if !forced {
			profile = draw.ProfileFor(pty.Term, sess.Environ())
		}

		s := session.New(bufio.NewReader(sess), sess, session.Options{
			TermSizeFunc: sizeTracker.getSize,
			Profile:      profile,
			FPS:          h.term.FPS,
			Mouse:        h.term.Mouse,
			Banner:       h.term.Banner,
			ShowStatus:   h.term.ShowStatus,
			IdleTimeout:  h.ssh.IdleTimeout,
			IdleWarning:  h.ssh.IdleWarning,
			Shutdown:     h.shutdown,
			Overrides:    h.sf.Overrides(),
			Logger:       logger,
		})
		if err := s.Run(sess.Context()); err != nil && !errors.Is(err, session.ErrIdle) {
			logger.Error("Session error", "err", err)
		}

		logger.Info("Session ended")
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
