package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/todo/internal/config"
	"github.com/ShayCichocki/todo/internal/tui"
)

// runTUI opens the window and blocks until it is closed. The config watcher
// and the signal handler live exactly as long as the window.
func runTUI(ctx context.Context, cfg *config.Config, autostart bool, reload config.ReloadFunc) (retErr error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Log output would corrupt the display
	restore, err := redirectLog(cfg.Log.File)
	if err != nil {
		return err
	}
	defer restore()

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runTUI: %v", r)
		}
	}()

	opts := tui.OptionsFromConfig(cfg)
	opts.Autostart = autostart
	program, app := tui.NewProgram(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	watcher := config.NewWatcher(cfg.Sources, reload, func(next *config.Config) {
		program.Send(tui.ConfigReloadedMsg{Config: next})
	})
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil {
			log.Printf("[todo] live config reload disabled: %v", err)
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error {
		select {
		case <-sigCh:
			log.Println("[todo] received shutdown signal")
			program.Send(tui.CloseMsg{})
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("run TUI: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	// The window may have been torn down without the close sequence
	// (for example a program error), so make sure the producer is gone.
	if p := app.Producer(); p != nil && !p.Stopped() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer shutdownCancel()
		if err := p.Shutdown(shutdownCtx); err != nil {
			log.Printf("[todo] warning: %v", err)
		}
	}

	return runErr
}

// redirectLog sends log output to path, or discards it when path is empty.
// The returned func restores the previous writer.
func redirectLog(path string) (func(), error) {
	original := log.Writer()

	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(original) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)

	return func() {
		log.SetOutput(original)
		f.Close()
	}, nil
}
