package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	auth "github.com/goliatone/go-auth-audit"
	"github.com/goliatone/go-auth-audit/audit"
	"github.com/goliatone/go-auth-audit/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

// Version is set via ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "authaudit",
		Usage:     "token issuing API with request/response auditing",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{auth.EnvPrefix + "CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(stderr),
			auditCommand(stdout),
		},
	}
}

func serveCommand(stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides server.address",
			},
		},
		Action: func(c *cli.Context) error {
			opts, err := auth.LoadOptions(c.String("config"))
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				opts.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, stderr)
		},
	}
}

func auditCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "print the audit log in append order",
		Action: func(c *cli.Context) error {
			opts, err := auth.LoadOptions(c.String("config"))
			if err != nil {
				return err
			}
			store, err := audit.OpenStore(c.Context, audit.StoreOptions{
				Backend: opts.Audit.Backend,
				Path:    opts.Audit.Path,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			return printRecords(c.Context, store, stdout)
		},
	}
}

func printRecords(ctx context.Context, store audit.Store, w io.Writer) error {
	records, err := store.ReadAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		line, err := audit.FormatLine(rec)
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func serve(ctx context.Context, opts auth.Options, stderr io.Writer) error {
	logger, logCloser, err := auth.NewLogger(opts.Log, stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens, err := auth.NewTokenService(opts, logger.Named("token"))
	if err != nil {
		return err
	}

	activity := auth.MultiActivitySink{
		auth.NewLoggerActivitySink(logger.Named("activity")),
		auth.NewActivityMetrics(reg),
	}

	identities := auth.NewMemoryIdentityStore(auth.SeedIdentities()...)
	auther := auth.NewAuthenticator(identities, tokens).
		WithLogger(logger.Named("auth")).
		WithActivitySink(activity)
	keys, err := auth.NewKeyRing(tokens, opts.RetiredSigningKeys...)
	if err != nil {
		return err
	}
	gate := auth.NewRoleGate(keys).
		WithLogger(logger.Named("gate")).
		WithActivitySink(activity)

	auditLogger := logger.Named("audit")
	store, err := audit.OpenStore(ctx, audit.StoreOptions{
		Backend: opts.Audit.Backend,
		Path:    opts.Audit.Path,
		Logger:  auditLogger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing audit store", "error", err)
		}
	}()

	interceptor := audit.NewInterceptor(store,
		audit.WithLogger(auditLogger),
		audit.WithMetrics(audit.NewMetrics(reg)),
		audit.WithMaxBodySize(opts.Audit.MaxBodySize),
		audit.WithRequestBuffering(opts.Audit.BufferRequests),
		audit.WithLocalAddress(opts.Audit.LocalAddress),
		audit.WithRedactedHeaders(opts.Audit.RedactHeaders...),
	)

	srv := server.New(auther, gate, store,
		server.WithLogger(logger.Named("http")),
		server.WithInterceptor(interceptor),
		server.WithAppLogPath(opts.Log.Path),
		server.WithGatherer(reg),
	)

	if len(opts.Audit.RedactHeaders) == 0 {
		logger.Warn("audit records keep every header value, set audit.redact_headers to mask credentials")
	}

	ln, err := net.Listen("tcp", opts.Server.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Server.Address, err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", ln.Addr().String(), "audit_backend", opts.Audit.Backend)
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
