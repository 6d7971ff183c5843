// Package identity derives the voter of a request. It has no side effects, the same request
// context always resolves to the same identity.
package identity

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
)

// Limits of the voter_key and network_address columns.
const (
	MaxClientTokenLength    = 128
	MaxNetworkAddressLength = 64
)

// fallbackNamespace scopes the UUIDv5 tokens synthesized for clients without a voter token.
var fallbackNamespace = uuid.MustParse("6d1f0a38-51a4-4f4e-9c1e-4b1b8e2f7a10")

// VoterIdentity is either an authenticated user or an anonymous (client token, network address)
// pair. It is comparable, two identities are the same voter only if every field matches.
type VoterIdentity struct {
	Kind           entity.VoterKind
	UserID         string
	ClientToken    string
	NetworkAddress string
}

func Authenticated(userID string) VoterIdentity {
	return VoterIdentity{Kind: entity.VoterUser, UserID: userID}
}

func Anonymous(clientToken, networkAddress string) VoterIdentity {
	return VoterIdentity{
		Kind:           entity.VoterAnonymous,
		ClientToken:    clientToken,
		NetworkAddress: networkAddress,
	}
}

func (v VoterIdentity) IsAuthenticated() bool {
	return v.Kind == entity.VoterUser
}

// Key is the primary voter key stored with each vote.
func (v VoterIdentity) Key() string {
	if v.IsAuthenticated() {
		return v.UserID
	}

	return v.ClientToken
}

func (v VoterIdentity) Equal(other VoterIdentity) bool {
	return v == other
}

func (v VoterIdentity) String() string {
	if v.IsAuthenticated() {
		return "user:" + v.UserID
	}

	return "anonymous:" + v.ClientToken + "@" + v.NetworkAddress
}

// Resolve returns the authenticated user when the auth middleware verified an access token,
// otherwise an anonymous identity.
//
// Without a client token, the token is derived from the user-agent, the network address and the
// session marker. Such a token changes whenever one of those changes (new session, new network),
// so anonymous deduplication is best effort.
func Resolve(ctx context.Context) (VoterIdentity, error) {
	if userID := xcontext.RequestUserID(ctx); userID != "" {
		return Authenticated(userID), nil
	}

	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return VoterIdentity{}, errorx.New(errorx.BadRequest, "Cannot identify the voter")
	}

	cfg := xcontext.Configs(ctx).Identity
	address := NetworkAddress(req, cfg.TrustProxy)

	token := strings.TrimSpace(req.Header.Get(cfg.ClientTokenHeader))
	if token == "" && cfg.ClientTokenCookie != "" {
		if cookie, err := req.Cookie(cfg.ClientTokenCookie); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}

	if len(token) > MaxClientTokenLength {
		return VoterIdentity{}, errorx.New(errorx.BadRequest,
			"Voter token must be at most %d characters", MaxClientTokenLength)
	}

	if len(address) > MaxNetworkAddressLength {
		return VoterIdentity{}, errorx.New(errorx.BadRequest, "Invalid client address")
	}

	if token == "" {
		token = FallbackToken(req.UserAgent(), address, xcontext.SessionMarker(ctx))
	}

	return Anonymous(token, address), nil
}

func FallbackToken(userAgent, address, sessionMarker string) string {
	data := strings.Join([]string{userAgent, address, sessionMarker}, "\n")
	return "fp-" + uuid.NewSHA1(fallbackNamespace, []byte(data)).String()
}

// NetworkAddress returns the client address. Forwarding headers are only honored behind a
// trusted proxy.
func NetworkAddress(req *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if addr := strings.TrimSpace(first); addr != "" {
				return addr
			}
		}

		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
