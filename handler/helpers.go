package handler

import (
	"errors"
	"eventhub-backend/config"
	"eventhub-backend/factory"
	"eventhub-backend/identity"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var errUnauthorized = errors.New("no valid auth token")

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// resolveCaller verifies the ID token against the identity provider and
// resolves (provisioning if necessary) the local user. Mutating endpoints
// use this; read endpoints go through resolveCallerOffline.
func resolveCaller(r *http.Request, f factory.Factory) (*identity.Caller, error) {
	ctx := r.Context()

	tokenID := bearerToken(r)
	if tokenID == "" {
		return nil, errUnauthorized
	}

	token, err := identity.VerifyIDToken(ctx, f.FirebaseApp(ctx), tokenID)
	if err != nil {
		return nil, errUnauthorized
	}

	user, err := identity.EnsureUser(ctx, f.Store(ctx), token.UID, token.Claims)
	if err != nil {
		return nil, err
	}
	return identity.NewCaller(user), nil
}

// resolveCallerOffline validates the token against Google's published
// certificates without a round trip to the identity provider.
func resolveCallerOffline(r *http.Request, f factory.Factory) (*identity.Caller, error) {
	ctx := r.Context()

	tokenID := bearerToken(r)
	if tokenID == "" {
		return nil, errUnauthorized
	}

	uid, ok := identity.VerifyJWTIDToken(tokenID, viper.GetString(config.FirebaseProjectID),
		time.Duration(viper.GetInt(config.JWTOfflineInterval))*time.Second)
	if !ok {
		return nil, errUnauthorized
	}

	user, err := identity.EnsureUser(ctx, f.Store(ctx), uid, nil)
	if err != nil {
		return nil, err
	}
	return identity.NewCaller(user), nil
}

// optionalCaller resolves the caller when a token is present; anonymous
// requests get a nil caller, not an error.
func optionalCaller(r *http.Request, f factory.Factory) *identity.Caller {
	if bearerToken(r) == "" {
		return nil
	}
	caller, err := resolveCallerOffline(r, f)
	if err != nil {
		return nil
	}
	return caller
}

func pagination(r *http.Request, defaultLimit int64) (page, limit int64) {
	page = 1
	limit = defaultLimit
	if p, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
