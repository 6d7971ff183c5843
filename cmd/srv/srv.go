package main

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/sessions"
	"github.com/matchpoll/backend/config"
	"github.com/matchpoll/backend/internal/domain"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/domain/tally"
	"github.com/matchpoll/backend/internal/domain/voting"
	"github.com/matchpoll/backend/internal/model"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/authenticator"
	"github.com/matchpoll/backend/pkg/logger"
	"github.com/matchpoll/backend/pkg/router"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/matchpoll/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	configs     config.Configs
	redisClient xredis.Client
	router      *router.Router
	server      *http.Server

	tokenEngine  authenticator.TokenEngine[model.AccessToken]
	sessionStore sessions.Store

	fixtureRepo    repository.FixtureRepository
	categoryRepo   repository.CategoryRepository
	voteOptionRepo repository.VoteOptionRepository
	voteRepo       repository.VoteRepository

	registry     *registry.Registry
	votingEngine *voting.Engine
	tallyEngine  *tally.Engine

	voteDomain     domain.VoteDomain
	fixtureDomain  domain.FixtureDomain
	categoryDomain domain.CategoryDomain
}

func (s *srv) loadConfig(cctx *cli.Context) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		panic(err)
	}

	s.configs = cfg
	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.ParseLevel(s.configs.Log.Level)))
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := s.configs.Database

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	default:
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(), // data source name
			DefaultStringSize:         256,                    // default size for string fields
			DisableDatetimePrecision:  true,                   // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,                   // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,                   // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false,                  // auto configure based on currently MySQL version
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "silent":
		return gormlogger.Silent
	default:
		return gormlogger.Error
	}
}

func (s *srv) loadDatabase() {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
}

func (s *srv) loadSnowflake() {
	node, err := snowflake.NewNode(s.configs.Voting.SnowflakeNode)
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithSnowFlake(s.ctx, node)
}

// loadRedis falls back to the in-process cache when no Redis address is configured. The
// in-process cache is only correct with a single api instance.
func (s *srv) loadRedis() {
	if s.configs.Redis.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("Redis is not configured, tallies are cached in memory")
		s.redisClient = xredis.NewMemoryClient()
		return
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadAuth() {
	s.tokenEngine = authenticator.NewTokenEngine[model.AccessToken](s.configs.Auth.AccessToken)

	store := sessions.NewCookieStore([]byte(s.configs.Session.Secret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	s.sessionStore = store
}

func (s *srv) loadRepos() {
	s.fixtureRepo = repository.NewFixtureRepository()
	s.categoryRepo = repository.NewCategoryRepository()
	s.voteOptionRepo = repository.NewVoteOptionRepository()
	s.voteRepo = repository.NewVoteRepository()
}

func (s *srv) loadEngines() {
	s.registry = registry.New(s.voteOptionRepo, s.categoryRepo)
	s.votingEngine = voting.NewEngine(
		voting.PolicyFromConfigs(s.configs.Voting),
		s.fixtureRepo,
		s.voteOptionRepo,
		s.voteRepo,
		s.registry,
	)
	s.tallyEngine = tally.NewEngine(s.registry, s.redisClient, s.configs.Voting.TallyCacheTTL)
}

func (s *srv) loadDomains() {
	s.voteDomain = domain.NewVoteDomain(s.fixtureRepo, s.voteRepo, s.votingEngine, s.tallyEngine)
	s.fixtureDomain = domain.NewFixtureDomain(
		s.fixtureRepo, s.voteOptionRepo, s.categoryRepo, s.registry, s.tallyEngine)
	s.categoryDomain = domain.NewCategoryDomain(s.categoryRepo, s.voteOptionRepo, s.tallyEngine)
}
