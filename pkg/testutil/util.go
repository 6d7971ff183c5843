package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/matchpoll/backend/config"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/logger"
	"github.com/matchpoll/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockConfigs() config.Configs {
	cfg := config.Default()
	cfg.Auth.AccessToken.Secret = "secret"
	cfg.Auth.AccessToken.Expiration = time.Minute
	cfg.Auth.AdminUserIDs = []string{AdminUserID}
	cfg.Session.Secret = "session-secret"
	cfg.Voting.StorageTimeout = 5 * time.Second
	return cfg
}

// MockContext returns a context with an isolated in-memory database. Every connection of the
// pool sees the same database, the pool is limited to one connection so that concurrent
// transactions are serialized like they would be by a row lock.
func MockContext() context.Context {
	return MockContextWithConfigs(MockConfigs())
}

func MockContextWithConfigs(cfg config.Configs) context.Context {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithSnowFlake(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}

// AnonymousRequest attaches a request carrying the given voter token and remote address.
func AnonymousRequest(ctx context.Context, token, address string) context.Context {
	req := httptest.NewRequest(http.MethodPost, "/castVote", nil)
	req.RemoteAddr = address + ":51000"
	if token != "" {
		req.Header.Set(xcontext.Configs(ctx).Identity.ClientTokenHeader, token)
	}

	return xcontext.WithHTTPRequest(xcontext.WithRequestUserID(ctx, ""), req)
}
