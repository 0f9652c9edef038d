package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/guard"
	"github.com/hupe1980/vecfield/internal/api"
	"github.com/hupe1980/vecfield/observability"
	"github.com/hupe1980/vecfield/resource"
	"github.com/hupe1980/vecfield/vectorstore"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var (
		addr            string
		mappingPath     string
		memoryLimit     int64
		breakerInterval time.Duration
		workers         int
		registry        registryFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve mapping validation and vector ingestion over HTTP",
		Long: `Start an HTTP server exposing:

  POST /_validate                 compile a mapping without registering it
  PUT  /_mapping                  register (or merge) vector fields
  GET  /_mapping                  export registered fields
  POST /fields/{name}/_ingest     parse and index documents
  GET  /fields/{name}/_count      count indexed vectors
  GET  /health                    liveness
  GET  /metrics                   Prometheus metrics

With --memory-limit the vector memory circuit breaker rejects parses while the
indexed vectors exceed the limit.`,
		Example: `  vecfield serve --addr :8080 --mapping mapping.json --memory-limit 1073741824`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if memoryLimit > 0 && breakerInterval <= 0 {
				return fmt.Errorf("--breaker-interval must be positive, got %s", breakerInterval)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			reg, closeRegistry, err := registry.registry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeRegistry() }()

			// The controller only tracks usage; the breaker enforces the limit.
			rc := resource.NewController(resource.Config{})
			store := vectorstore.New(vectorstore.WithResourceController(rc))
			breaker := guard.NewMemoryBreaker(rc,
				guard.WithLimit(memoryLimit),
				guard.WithBreakerLogger(logger.Logger),
			)

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			collector, err := observability.NewCollector(promReg,
				observability.WithMemoryController(rc),
				observability.WithBreaker(breaker),
			)
			if err != nil {
				return err
			}

			opts := []vecfield.Option{
				vecfield.WithLogger(logger),
				vecfield.WithSink(store),
				vecfield.WithGuards(guard.Set{Breaker: breaker}),
				vecfield.WithMetricsCollector(collector),
				vecfield.WithWorkers(workers),
			}
			if reg != nil {
				opts = append(opts, vecfield.WithRegistry(reg))
			}
			mapper, err := newMapper(cmd, root, opts...)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.Config{
				Mapper:  mapper,
				Store:   store,
				Logger:  logger,
				Metrics: promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			})

			if mappingPath != "" {
				doc, err := loadMapping(mappingPath)
				if err != nil {
					return err
				}
				fields, err := srv.Apply(doc)
				if err != nil {
					return fmt.Errorf("preload %s: %w", mappingPath, err)
				}
				logger.Info("mapping loaded", "path", mappingPath, "fields", len(fields))
			}

			if memoryLimit > 0 {
				go breaker.Run(ctx, breakerInterval)
			}

			return srv.ListenAndServe(ctx, addr)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&addr, "addr", ":8080", "Listen address")
	fs.StringVar(&mappingPath, "mapping", "", "Mapping JSON file registered at startup")
	fs.Int64Var(&memoryLimit, "memory-limit", 0, "Vector memory circuit breaker limit in bytes (0 = disabled)")
	fs.DurationVar(&breakerInterval, "breaker-interval", time.Second, "Circuit breaker refresh interval")
	fs.IntVar(&workers, "workers", vecfield.DefaultWorkers, "Concurrent parses per ingest request")
	registry.register(cmd)
	return cmd
}
