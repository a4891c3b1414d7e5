package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/invoicing/server"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "runs the HTTP API" }
func (*serveCmd) Usage() string {
	return `inv serve [-port <port>]

  Serves the calculator and the pagination planner over HTTP until
  interrupted:

    POST /api/v1/totals   line items and tax policy to amounts and totals
    POST /api/v1/pages    line items and layout to page descriptors
    POST /api/v1/preview  document to preview (?format=markdown)
    GET  /health
    GET  /metrics         Prometheus metrics

  The port defaults to the configuration, or $` + EnvPort + `.

`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (default from config)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	layout, err := cfg.PageLayout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	rate, err := cfg.TaxRate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	policy, err := cfg.ModePolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	port := cfg.Server.Port
	if c.port != 0 {
		port = c.port
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = logger.Sync() }()

	if !*Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Config{Port: port, Layout: layout, TaxRate: rate, Tax: policy}, logger, reg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting invoicing api",
		zap.Int("port", port),
		zap.Stringer("layout", layout),
		zap.Stringer("taxRate", rate),
		zap.String("taxMode", cfg.Tax.Mode),
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return subcommands.ExitFailure
	}
	logger.Info("server stopped")
	return subcommands.ExitSuccess
}
