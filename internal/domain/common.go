package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/enum"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
)

// parseSurface accepts both the canonical names and the homepage/details aliases.
func parseSurface(s string) (entity.Surface, error) {
	surface, err := enum.ToEnum[entity.Surface](strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", errorx.New(errorx.BadRequest, "Invalid surface %q", s)
	}

	return surface, nil
}

// withStorageTimeout bounds every query of the returned context by the storage timeout.
func withStorageTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, xcontext.Configs(ctx).Voting.StorageTimeout)
	return xcontext.WithDB(ctx, xcontext.DB(ctx).WithContext(ctx)), cancel
}

func verifyAdmin(ctx context.Context, verifier *common.AdminVerifier) error {
	if err := verifier.Verify(ctx); err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return errorx.New(errorx.Unauthenticated, "Please sign in")
		}

		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}

func storageError(ctx context.Context, op string, err error) error {
	xcontext.Logger(ctx).Errorf("Cannot %s: %v", op, err)
	return errorx.New(errorx.StorageUnavailable, "Storage is unavailable, please retry")
}
