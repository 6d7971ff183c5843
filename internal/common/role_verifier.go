package common

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
)

var (
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrNotAdmin         = errors.New("user is not an administrator")
)

// AdminVerifier accepts only the users listed in the auth.admin_user_ids configuration.
type AdminVerifier struct{}

func NewAdminVerifier() *AdminVerifier {
	return &AdminVerifier{}
}

func (verifier *AdminVerifier) Verify(ctx context.Context) error {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return ErrNotAuthenticated
	}

	if !slices.Contains(xcontext.Configs(ctx).Auth.AdminUserIDs, userID) {
		return ErrNotAdmin
	}

	return nil
}
