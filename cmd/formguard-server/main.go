package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard"
	"github.com/goliatone/go-formguard/internal/config"
	"github.com/goliatone/go-formguard/internal/logging"
	"github.com/goliatone/go-formguard/internal/metrics"
	"github.com/goliatone/go-formguard/internal/sandbox"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/schemafile"
)

func main() {
	configPath := flag.String("config", "", "configuration file (defaults to $FORMGUARD_CONFIG or ./formguard.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "formguard-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schemas, err := loadSchemas(ctx, cfg.Schemas, logger)
	if err != nil {
		return err
	}

	opts := sandbox.DefaultOptions()
	opts.Logger = logger
	opts.RateLimit = cfg.Remote.RateLimit
	opts.RateWindow = cfg.Remote.RateWindow
	opts.LookupTimeout = cfg.Remote.LookupTimeout
	opts.TakenUsernames = cfg.Remote.TakenUsernames
	opts.RegisteredEmails = cfg.Remote.RegisteredEmails
	opts.Schemas = schemas
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.New()
		opts.MetricsPath = cfg.Metrics.Path
	}

	app, err := sandbox.New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Int("forms", len(app.Forms())).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadSchemas reads the optional schema directory and OpenAPI document. Both
// compile against a registry that knows the sandbox custom kinds.
func loadSchemas(ctx context.Context, cfg config.SchemasConfig, logger zerolog.Logger) ([]*rules.Schema, error) {
	reg := rules.NewRegistry()
	if err := sandbox.RegisterKinds(reg); err != nil {
		return nil, err
	}

	var out []*rules.Schema
	if cfg.Dir != "" {
		store, err := schemafile.LoadFS(os.DirFS(cfg.Dir), schemafile.WithRegistry(reg))
		if err != nil {
			return nil, err
		}
		for _, name := range store.Names() {
			schema, _ := store.Schema(name)
			out = append(out, schema)
		}
		logger.Info().Str("dir", cfg.Dir).Strs("schemas", store.Names()).Msg("loaded schema files")
	}

	if cfg.OpenAPI != "" {
		src, err := pkgopenapi.ParseSource(cfg.OpenAPI)
		if err != nil {
			return nil, err
		}
		loader := formguard.NewOpenAPILoader(
			pkgopenapi.WithHTTPFallback(formguard.DefaultFetchTimeout),
			pkgopenapi.WithLoaderLogger(logging.Component(logger, "openapi")),
		)
		schemas, err := formguard.LoadOpenAPISchemasWith(ctx, loader, src, pkgopenapi.WithRegistry(reg))
		if err != nil {
			return nil, err
		}
		for _, schema := range schemas {
			out = append(out, schema)
		}
		logger.Info().Str("source", src.Location()).Int("schemas", len(schemas)).Msg("loaded openapi schemas")
	}
	return out, nil
}
