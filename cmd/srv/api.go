package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/matchpoll/backend/internal/middleware"
	"github.com/matchpoll/backend/migration"
	"github.com/matchpoll/backend/pkg/prometheus"
	"github.com/matchpoll/backend/pkg/router"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.loadDatabase()
	s.loadSnowflake()
	s.loadRedis()
	s.loadAuth()
	s.loadRepos()
	s.loadEngines()
	s.loadDomains()

	if cctx.Bool("auto-migrate") {
		if err := migration.AutoMigrate(s.ctx); err != nil {
			return err
		}
	}

	s.loadRouter()

	s.server = &http.Server{
		Addr:              s.configs.ApiServer.Address(),
		Handler:           middleware.AllowCors(s.configs, s.router.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.Before(middleware.NewAuthVerifier(s.tokenEngine).Middleware())
	s.router.AddCloser(middleware.Prometheus())
	s.router.AddCloser(middleware.Logger())

	// Public API, voters may be anonymous.
	publicRouter := s.router.Branch()
	publicRouter.Before(middleware.SessionMarker(s.sessionStore))
	{
		router.POST(publicRouter, "/castVote", s.voteDomain.CastVote)
		router.GET(publicRouter, "/getTally", s.voteDomain.GetTally)
		router.GET(publicRouter, "/getVoterSelection", s.voteDomain.GetVoterSelection)
		router.GET(publicRouter, "/getOptions", s.fixtureDomain.GetOptions)
		router.GET(publicRouter, "/getCategories", s.categoryDomain.GetCategories)
	}

	// Admin API.
	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.NewOnlyAdmin().Middleware())
	{
		router.POST(adminRouter, "/publishFixture", s.fixtureDomain.PublishFixture)
		router.POST(adminRouter, "/updateFixtureStatus", s.fixtureDomain.UpdateFixtureStatus)
		router.POST(adminRouter, "/createOption", s.fixtureDomain.CreateOption)
		router.POST(adminRouter, "/createCategory", s.categoryDomain.CreateCategory)
		router.POST(adminRouter, "/updateCategory", s.categoryDomain.UpdateCategory)
		router.POST(adminRouter, "/deleteCategory", s.categoryDomain.DeleteCategory)
	}

	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler())
}
