package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/goliatone/go-formguard/internal/config"
	"github.com/goliatone/go-formguard/internal/logging"
	"github.com/goliatone/go-formguard/internal/sandbox"
	"github.com/goliatone/go-formguard/internal/tui"
	"github.com/goliatone/go-formguard/pkg/client"
	"github.com/goliatone/go-formguard/pkg/rules"
)

func main() {
	configPath := flag.String("config", "", "configuration file (defaults to $FORMGUARD_CONFIG or ./formguard.yaml)")
	formID := flag.String("form", "simple-conditional", "form id to fill in")
	baseURL := flag.String("server", "", "sandbox server URL (overrides client.base_url)")
	flag.Parse()

	if err := run(*configPath, *formID, *baseURL); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "formguard-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, formID, baseURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "console"
	logger := logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hc := &http.Client{Timeout: cfg.Client.Timeout}
	base := strings.TrimRight(cfg.Client.BaseURL, "/")

	desc, err := tui.FetchDescriptor(ctx, hc, base, formID)
	if err != nil {
		return err
	}

	reg := rules.NewRegistry()
	if err := sandbox.RegisterKinds(reg); err != nil {
		return err
	}
	checker, err := client.NewHTTPRemoteChecker(
		client.WithHTTPClient(hc),
		client.WithBaseURL(base),
		client.WithRemoteLogger(logging.Component(logger, "remote")),
		client.WithBreaker(cfg.Client.BreakerThreshold, cfg.Client.BreakerTimeout),
	)
	if err != nil {
		return err
	}
	eval := client.New(
		client.WithRegistry(reg),
		client.WithLogger(logging.Component(logger, "client")),
		client.WithRemoteChecker(checker),
	)

	session := tui.NewSession(eval, client.NewSubmitter(eval, hc))
	result, err := session.Run(ctx, client.FormFromDescriptor(desc), base+desc.Action)
	if err != nil {
		return err
	}
	if len(result.Body) > 0 {
		fmt.Println(strings.TrimSpace(string(result.Body)))
	}
	return nil
}
