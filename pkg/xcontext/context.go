package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/matchpoll/backend/config"
	"github.com/matchpoll/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	dbKey            struct{}
	loggerKey        struct{}
	configsKey       struct{}
	httpRequestKey   struct{}
	httpWriterKey    struct{}
	userIDKey        struct{}
	sessionMarkerKey struct{}
	snowflakeKey     struct{}
	startTimeKey     struct{}
	errorKey         struct{}
	responseKey      struct{}
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

func DB(ctx context.Context) *gorm.DB {
	db := ctx.Value(dbKey{})
	if db == nil {
		return nil
	}

	return db.(*gorm.DB)
}

// WithDBTransaction replaces the DB of the context by a new transaction. The caller must call
// WithCommitDBTransaction or WithRollbackDBTransaction on the returned context.
func WithDBTransaction(ctx context.Context) context.Context {
	return WithDB(ctx, DB(ctx).Begin())
}

func WithCommitDBTransaction(ctx context.Context) error {
	return DB(ctx).Commit().Error
}

// WithRollbackDBTransaction is safe to call after the transaction was committed.
func WithRollbackDBTransaction(ctx context.Context) {
	DB(ctx).Rollback()
}

func WithLogger(ctx context.Context, logger logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func Logger(ctx context.Context) logger.Logger {
	l := ctx.Value(loggerKey{})
	if l == nil {
		return logger.NewLogger(logger.SILENCE)
	}

	return l.(logger.Logger)
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	return ctx.Value(configsKey{}).(config.Configs)
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req := ctx.Value(httpRequestKey{})
	if req == nil {
		return nil
	}

	return req.(*http.Request)
}

func WithHTTPWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, httpWriterKey{}, w)
}

func HTTPWriter(ctx context.Context) http.ResponseWriter {
	w := ctx.Value(httpWriterKey{})
	if w == nil {
		return nil
	}

	return w.(http.ResponseWriter)
}

func WithRequestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func RequestUserID(ctx context.Context) string {
	id := ctx.Value(userIDKey{})
	if id == nil {
		return ""
	}

	return id.(string)
}

func WithSessionMarker(ctx context.Context, marker string) context.Context {
	return context.WithValue(ctx, sessionMarkerKey{}, marker)
}

func SessionMarker(ctx context.Context) string {
	marker := ctx.Value(sessionMarkerKey{})
	if marker == nil {
		return ""
	}

	return marker.(string)
}

func WithSnowFlake(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

func SnowFlake(ctx context.Context) *snowflake.Node {
	return ctx.Value(snowflakeKey{}).(*snowflake.Node)
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	t := ctx.Value(startTimeKey{})
	if t == nil {
		return time.Time{}
	}

	return t.(time.Time)
}
