package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/jrsteele09/enertrack-console/metrics"
	"github.com/jrsteele09/enertrack-console/server"
	"github.com/jrsteele09/enertrack-console/token"
	"github.com/jrsteele09/enertrack-console/token/refresh"
	refreshrepofake "github.com/jrsteele09/enertrack-console/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/enertrack-console/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running mock backend")
	}
	log.Info().Msg("mock backend stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetLogLevel())
	displayAppname(c.GetAppName() + " mock")

	handler, err := newHandler(c)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// newHandler builds the backend and mounts it next to the metrics endpoint.
func newHandler(c config.Config) (http.Handler, error) {
	signer, err := newSigner(c)
	if err != nil {
		return nil, err
	}

	userRepo := fakeuserrepo.NewFakeUserRepo()
	refreshManager := refresh.NewManager(
		refreshrepofake.NewFakeRefreshTokenRepo(),
		c.GetRefreshTokenExpiry(),
		refresh.WithTokenLength(c.GetRefreshTokenLength()),
	)
	issuer := token.NewIssuer(signer, userRepo, refreshManager,
		token.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
		token.WithRefreshRotation(c.GetRotateRefreshTokens()),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backend, err := server.New(c, issuer, userRepo, server.WithMetrics(metrics.NewHTTP(reg, "mockbackend")))
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+server.RouteMetrics, metrics.Handler(reg))
	mux.Handle("/", backend)

	log.Info().
		Str("signer", string(c.GetSignerType())).
		Dur("access_ttl", c.GetAccessTokenExpiry()).
		Bool("rotate_refresh", c.GetRotateRefreshTokens()).
		Msg("token issuer configured")
	return mux, nil
}

func newSigner(c config.Config) (token.Signer, error) {
	switch c.GetSignerType() {
	case config.SignerRS256:
		if path := c.GetSigningKeyFile(); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read signing key: %w", err)
			}
			kp, err := token.LoadRSAKeyPairFromPEM(filepath.Base(path), string(data))
			if err != nil {
				return nil, fmt.Errorf("failed to load signing key %s: %w", path, err)
			}
			return token.NewKeyPairSigner(kp), nil
		}
		kp, err := token.GenerateRSAKeyPair("mock-"+time.Now().UTC().Format("20060102"), 2048)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		return token.NewKeyPairSigner(kp), nil
	default:
		return token.NewHMACSigner(c.GetSigningSecret()), nil
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("mock backend listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
