package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/itohio/gripmate/pkg/telemetry"
)

type ServeCommand struct {
	DeviceOptions
	Listen string `short:"l" long:"listen" description:"Listen address (overrides config)"`
}

func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Telemetry.Listen = c.Listen
	}

	dev, err := c.open(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	hub := telemetry.NewHub(func(cmd byte) {
		if err := dev.Send(cmd); err != nil {
			log.Printf("serve: send %q: %v", cmd, err)
		}
	})
	go func() {
		for f := range dev.Frames() {
			hub.Emit(f)
		}
	}()
	go func() {
		for line := range dev.Logs() {
			log.Printf("controller: %s", line)
		}
	}()

	return serve(ctx, cfg.Telemetry.Listen, hub)
}

// serve runs an HTTP server with the hub on /ws until ctx is cancelled.
func serve(ctx context.Context, addr string, hub *telemetry.Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serve: telemetry on ws://%s/ws", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
