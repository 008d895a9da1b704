package identity

import (
	"context"
	"eventhub-backend/config"
	"eventhub-backend/model"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Caller is the resolved identity of the current request, built once at
// the request boundary and passed explicitly into the workflows.
type Caller struct {
	User  *model.User
	Admin bool
}

// UserStore is the slice of the store the resolver needs.
type UserStore interface {
	FindUserByIdentityID(ctx context.Context, identityID string) (*model.User, bool, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
}

// EnsureUser returns the local user for an external identity, provisioning
// one on first contact. Claims come from the verified token and may be
// empty; a user record with just the identity id is acceptable.
func EnsureUser(ctx context.Context, s UserStore, identityID string, claims map[string]interface{}) (*model.User, error) {
	if identityID == "" {
		return nil, fmt.Errorf("ensureUser: empty identity id")
	}

	user, found, err := s.FindUserByIdentityID(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("ensureUser: error looking up user: %w", err)
	}
	if found {
		return user, nil
	}

	fresh := &model.User{
		IdentityID: identityID,
		Email:      stringClaim(claims, "email"),
		Photo:      stringClaim(claims, "picture"),
	}
	if name := stringClaim(claims, "name"); name != "" {
		parts := strings.SplitN(name, " ", 2)
		fresh.FirstName = parts[0]
		if len(parts) > 1 {
			fresh.LastName = parts[1]
		}
	}
	if fresh.Email != "" {
		fresh.Username = strings.SplitN(fresh.Email, "@", 2)[0]
	}

	created, err := s.CreateUser(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("ensureUser: error provisioning user %s: %w", identityID, err)
	}
	return created, nil
}

// NewCaller wraps a user together with the admin decision, which is
// configuration, not stored state.
func NewCaller(user *model.User) *Caller {
	return &Caller{User: user, Admin: isAdmin(user)}
}

func isAdmin(user *model.User) bool {
	if user == nil {
		return false
	}
	if email := viper.GetString(config.AdminEmail); email != "" && strings.EqualFold(user.Email, email) {
		return true
	}
	if id := viper.GetString(config.AdminIdentityID); id != "" && user.IdentityID == id {
		return true
	}
	return false
}

func stringClaim(claims map[string]interface{}, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
