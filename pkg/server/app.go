package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PivotPipe/internal/domain/events"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/internal/handler/api"
	"PivotPipe/internal/replay"
	pkgbus "PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/config"
	pkgkafka "PivotPipe/pkg/kafka"
	"PivotPipe/pkg/logger"
)

// App encapsulates the application lifecycle. All bus dispatch happens on
// one pump goroutine; feed reads and fill consumption only enqueue onto the
// ingress channel.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	bus       *pkgbus.Bus
	ingress   chan pkgbus.Event
	stream    drepo.TickStream // live mode
	replayClk *clock.Replay    // replay mode
	consumer  *pkgkafka.Consumer
	apiH      *api.Handler
	e         *echo.Echo
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	b *pkgbus.Bus,
	ingress chan pkgbus.Event,
	stream drepo.TickStream,
	replayClk *clock.Replay,
	consumer *pkgkafka.Consumer,
	apiH *api.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		bus:       b,
		ingress:   ingress,
		stream:    stream,
		replayClk: replayClk,
		consumer:  consumer,
		apiH:      apiH,
	}
}

// Run starts the application and blocks until interrupted or, in replay
// mode, until the archive is exhausted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startHTTP()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("fill consumer error", logger.Error(err))
			}
		}()
		a.log.Info("fill consumer started", logger.String("topic", a.cfg.Kafka.FillTopic))
	}

	done := make(chan struct{})
	switch a.cfg.Mode {
	case "replay":
		if err := a.runReplay(done); err != nil {
			return err
		}
	default:
		if err := a.runLive(ctx); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
	case <-done:
		a.log.Info("replay complete")
	}
	return a.shutdown(ctx)
}

// runLive connects the feed and starts the single pump goroutine.
func (a *App) runLive(ctx context.Context) error {
	if err := a.stream.Connect(ctx); err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	if err := a.stream.Subscribe(ctx); err != nil {
		return fmt.Errorf("feed subscribe: %w", err)
	}
	ticks, errs := a.stream.Read(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				if err != nil {
					a.log.Error("feed stream error", logger.Error(err))
					_ = a.stream.Reconnect(ctx)
					ticks, errs = a.stream.Read(ctx)
				}
			case t, ok := <-ticks:
				if !ok {
					return
				}
				a.ingress <- events.TickReceived{Tick: t}
			}
		}
	}()

	go a.pump(ctx)
	a.log.Info("live ingestion started", logger.Strings("symbols", a.cfg.Universe.Symbols))
	return nil
}

// pump is the single logical thread of control: everything published on
// the bus goes through here.
func (a *App) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-a.ingress:
			a.bus.Publish(e)
		}
	}
}

// runReplay drives the archive through the bus on one goroutine,
// interleaving any fill acknowledgements that arrive on the ingress
// channel between ticks.
func (a *App) runReplay(done chan struct{}) error {
	f, err := os.Open(a.cfg.Replay.File)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	loader := replay.NewLoader(f, a.bus, a.replayClk, a.log)

	go func() {
		defer close(done)
		defer f.Close()
		for {
			select {
			case e := <-a.ingress:
				a.bus.Publish(e)
			default:
				if !loader.Next() {
					return
				}
			}
		}
	}()
	a.log.Info("replay started", logger.String("file", a.cfg.Replay.File))
	return nil
}

func (a *App) startHTTP() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	a.apiH.Register(e)
	if a.cfg.Metrics.Enabled {
		path := a.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(promhttp.Handler()))
	}
	a.e = e

	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
		if err := e.Start(addr); err != nil {
			a.log.Info("http server stopped", logger.Error(err))
		}
	}()
	a.log.Info("http server started", logger.Int("port", a.cfg.Server.Port))
}

func (a *App) shutdown(ctx context.Context) error {
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.stream != nil {
		_ = a.stream.Close()
	}
	if a.e != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = a.e.Shutdown(shutdownCtx)
	}
	a.log.Info("shutdown complete")
	return nil
}
