package middleware

import (
	"context"
	"strings"

	"github.com/matchpoll/backend/internal/model"
	"github.com/matchpoll/backend/pkg/authenticator"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/router"
	"github.com/matchpoll/backend/pkg/xcontext"
)

// AuthVerifier attaches the user of a valid access token to the request. Requests without a token
// stay anonymous, a token which cannot be verified is rejected.
type AuthVerifier struct {
	tokenEngine authenticator.TokenEngine[model.AccessToken]
}

func NewAuthVerifier(tokenEngine authenticator.TokenEngine[model.AccessToken]) *AuthVerifier {
	return &AuthVerifier{tokenEngine: tokenEngine}
}

func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := getAccessToken(ctx)
		if token == "" {
			return xcontext.WithRequestUserID(ctx, ""), nil
		}

		info, err := a.tokenEngine.Verify(token)
		if err != nil || info.ID == "" {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid or expired access token")
		}

		return xcontext.WithRequestUserID(ctx, info.ID), nil
	}
}

func getAccessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)

	authorization := req.Header.Get("Authorization")
	auth, token, found := strings.Cut(authorization, " ")
	if found {
		if strings.EqualFold(auth, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
