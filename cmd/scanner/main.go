// Command scanner runs one or more eight-light scanners on a fixed-rate
// control loop and serves their state as Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/internal/config"
	"github.com/comalice/cyclefsm/internal/logger"
	"github.com/comalice/cyclefsm/internal/scanner"
	"github.com/comalice/cyclefsm/internal/telemetry"
	"github.com/comalice/cyclefsm/realtime"
	"github.com/comalice/cyclefsm/scheduler"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file loaded before parsing the environment")
	tablePath := flag.String("table", "", "YAML table document (overrides SCANNER_TABLE)")
	dot := flag.Bool("dot", false, "print the transition table as Graphviz DOT and exit")
	flag.Parse()

	if err := run(*envFile, *tablePath, *dot); err != nil {
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, tablePath string, dot bool) error {
	settings, err := config.LoadSettings(envFile)
	if err != nil {
		return err
	}
	log, err := newLogger(settings)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	if tablePath != "" {
		settings.TablePath = tablePath
	}
	table, err := loadTable(settings)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.WithLogger(log))
	loop := realtime.NewLoop(sched, realtime.Config{TickRate: settings.TickRate, Logger: log})

	collector := telemetry.NewCollector()
	feed := make(chan cyclefsm.Transition, 256)
	publisher := telemetry.NewChannelPublisher(feed)

	var scanners []*scanner.Scanner
	for i := 1; i <= settings.Instances; i++ {
		name := fmt.Sprintf("%s-%d", table.ID, i)
		s, err := scanner.New(scanner.Options{
			Name:      name,
			Table:     table,
			Display:   scanner.NewTextDisplay(os.Stdout, name),
			Scheduler: sched,
			Logger:    log,
			Observers: []cyclefsm.Observer{collector.Observe, publisher.Observe},
		})
		if err != nil {
			return errors.Wrapf(err, "create %s", name)
		}
		collector.Add(s.Engine)
		loop.Add(s.Engine)
		scanners = append(scanners, s)
	}

	if dot {
		fmt.Print(telemetry.ExportDOT(table.ID, scanners[0].Engine.Table()))
		return nil
	}

	for _, s := range scanners {
		e := s.Engine
		if err := loop.Send(e.Start); err != nil {
			return errors.Wrapf(err, "start %s", e.Name())
		}
		if settings.StopAfter > 0 {
			stopRestart := scanner.StopRestart(e, settings.StopAfter, settings.RestartAfter, loop.Now)
			if err := loop.Send(func() { sched.Submit(stopRestart) }); err != nil {
				return errors.Wrapf(err, "schedule stop/restart of %s", e.Name())
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer publisher.Close()
		return loop.Run(ctx)
	})
	engines := make(map[uuid.UUID]*cyclefsm.Engine, len(scanners))
	for _, s := range scanners {
		engines[s.Engine.ID()] = s.Engine
	}
	g.Go(func() error {
		for t := range feed {
			log.Info("transition", transitionAttrs(engines[t.EngineID], t)...)
		}
		if n := publisher.Dropped(); n > 0 {
			log.Warn("transitions dropped from feed", "count", n)
		}
		return nil
	})
	if settings.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, settings.MetricsAddr, collector, log)
		})
	}

	log.Info("scanner running",
		"instances", settings.Instances,
		"lights", len(table.States),
		"tick_rate", settings.TickRate,
		"metrics", settings.MetricsAddr,
	)
	return g.Wait()
}

func newLogger(s config.Settings) (*slog.Logger, error) {
	level, err := logger.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(s.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithAttr(slog.String("service", "scanner")),
	), nil
}

func loadTable(s config.Settings) (*config.TableConfig, error) {
	if s.TablePath != "" {
		return config.LoadTable(s.TablePath)
	}
	c := scanner.TableConfig("scanner", s.Lights, s.Scale)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// transitionAttrs renders t as log attributes, naming states through the
// engine that recorded it.
func transitionAttrs(e *cyclefsm.Engine, t cyclefsm.Transition) []any {
	from, to := fmt.Sprint(t.From), fmt.Sprint(t.To)
	if e != nil {
		from, to = e.StateName(t.From), e.StateName(t.To)
	}
	return []any{
		"fsm", t.Engine,
		"from", from,
		"to", to,
		"trigger", t.Trigger,
		"initial", t.Initial,
		"at", t.At,
	}
}

func serveMetrics(ctx context.Context, addr string, c prometheus.Collector, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
