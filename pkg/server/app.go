package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/usecase"
	pkgch "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/clickhouse"
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/config"
	xhttp "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/http"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// initTimeout bounds data loading at startup.
const initTimeout = 2 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	analyzer    *usecase.Analyzer
	publisher   domrepo.Publisher
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	analyzer *usecase.Analyzer,
	publisher domrepo.Publisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		analyzer:  analyzer,
		publisher: publisher,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, initTimeout)
	err := a.analyzer.Init(initCtx)
	initCancel()
	if err != nil {
		a.logger.Error("analyzer init failed", applogger.Error(err))
		return err
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.cfg.Analysis.RunOnStartup {
		go func() {
			if _, err := a.analyzer.Run(ctx, a.DefaultParams()); err != nil {
				a.logger.Error("startup analysis failed", applogger.Error(err))
			}
		}()
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// DefaultParams builds run parameters from the config's analysis
// section, filling unset fields with the shipped defaults.
func (a *App) DefaultParams() models.AnalysisParams {
	c := a.cfg.Analysis
	p := models.AnalysisParams{
		NChangepoints:    c.NChangepoints,
		Draws:            c.Draws,
		Tune:             c.Tune,
		Chains:           c.Chains,
		TargetAccept:     c.TargetAccept,
		Seed:             c.Seed,
		TargetSeries:     c.TargetSeries,
		ToleranceDays:    c.ToleranceDays,
		WindowDays:       c.WindowDays,
		CredibleInterval: c.CredibleInterval,
	}
	if p.NChangepoints == 0 {
		p.NChangepoints = 3
	}
	if p.Draws == 0 {
		p.Draws = 1000
	}
	if p.Tune == 0 {
		p.Tune = 1000
	}
	if p.Chains == 0 {
		p.Chains = 2
	}
	if p.TargetAccept == 0 {
		p.TargetAccept = 0.9
	}
	if p.Seed == 0 {
		p.Seed = 42
	}
	if p.TargetSeries == "" {
		p.TargetSeries = "returns"
	}
	if p.ToleranceDays == 0 {
		p.ToleranceDays = 30
	}
	if p.WindowDays == 0 {
		p.WindowDays = 30
	}
	if p.CredibleInterval == 0 {
		p.CredibleInterval = 0.95
	}
	return p
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
