package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/b0bbywan/go-odio-btmedia/api"
	"github.com/b0bbywan/go-odio-btmedia/backend"
	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
	"github.com/b0bbywan/go-odio-btmedia/backend/systemd"
	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/events"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}

	// Set log levels from config, and follow later edits of the file
	logger.SetLevel(cfg.LogLevel)
	logger.SetComponentLevels(cfg.LogLevels)
	cfg.Watch()

	notifier := systemd.NewNotifier(cfg.Systemd)

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := backend.New(ctx, cfg.Bluetooth, cfg.Volume, cfg.Zeroconf)
	if err != nil {
		logger.Fatal("[%s] Backend initialization failed: %v", config.AppName, err)
	}

	if err := b.Start(); err != nil {
		logger.Fatal("[%s] Backend start failed: %v", config.AppName, err)
	}

	server := api.NewServer(cfg.Api, b)

	shutdownDone := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping server...", config.AppName)
		notifier.Stopping()

		// Cancel the global context - stops all listeners
		cancel()

		b.Close()
		close(shutdownDone)
	}()

	notifier.StartWatchdog(ctx)
	notifier.Ready()
	if b.Bluetooth != nil {
		notifier.Status(b.Bluetooth.NowPlaying().Track)
		go reportTrack(ctx, b.Events, notifier)
	}

	logger.Info("[%s] started", config.AppName)
	if server != nil {
		if err := server.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] http server error: %v", config.AppName, err)
		}
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}

// reportTrack mirrors the current track in the systemd status line.
func reportTrack(ctx context.Context, b *backend.Broadcaster, n *systemd.Notifier) {
	ch := b.SubscribeFunc(events.FilterTypes([]string{events.TypeTrackChanged}))
	defer b.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if data, ok := e.Data.(bluetooth.TrackChangedData); ok {
				n.Status(data.Track)
			}
		}
	}
}
