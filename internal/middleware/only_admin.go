package middleware

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/router"
)

type OnlyAdmin struct {
	adminVerifier *common.AdminVerifier
}

func NewOnlyAdmin() *OnlyAdmin {
	return &OnlyAdmin{adminVerifier: common.NewAdminVerifier()}
}

func (a *OnlyAdmin) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if err := a.adminVerifier.Verify(ctx); err != nil {
			if errors.Is(err, common.ErrNotAuthenticated) {
				return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
			}

			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return nil, nil
	}
}
