package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/matchpoll/backend/pkg/router"
	"github.com/matchpoll/backend/pkg/xcontext"
)

const sessionMarkerKey = "marker"

// SessionMarker gives every browser session a random marker, used to derive the voter token of
// anonymous clients which do not send one. A new marker is saved in the session cookie.
func SessionMarker(store sessions.Store) router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)
		name := xcontext.Configs(ctx).Session.Name

		// A cookie which cannot be decoded (rotated secret) yields a fresh session.
		session, err := store.Get(req, name)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot decode session: %v", err)
		}

		marker, ok := session.Values[sessionMarkerKey].(string)
		if !ok || marker == "" {
			marker = uuid.NewString()
			session.Values[sessionMarkerKey] = marker
			if err := session.Save(req, xcontext.HTTPWriter(ctx)); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot save session: %v", err)
			}
		}

		return xcontext.WithSessionMarker(ctx, marker), nil
	}
}
