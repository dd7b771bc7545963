// Package auth resolves bearer tokens to the principal making a request.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrUnauthenticated is returned when a token does not resolve to a principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the resolved identity behind a request.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Resolver maps a bearer token to a Principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// Token is a configured access token and the principal it grants.
type Token struct {
	Token   string `toml:"token"    mapstructure:"token"`
	UserID  string `toml:"user_id"  mapstructure:"user_id"`
	IsAdmin bool   `toml:"is_admin" mapstructure:"is_admin"`
}

// StaticResolver resolves tokens from a fixed list.
type StaticResolver struct {
	tokens []Token
}

// NewStaticResolver creates a resolver over tokens. Entries with an empty
// token or user id are ignored.
func NewStaticResolver(tokens []Token) *StaticResolver {
	kept := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Token) == "" || strings.TrimSpace(t.UserID) == "" {
			continue
		}
		kept = append(kept, t)
	}
	return &StaticResolver{tokens: kept}
}

// Resolve compares token against every entry in constant time.
func (r *StaticResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	var match *Token
	for i := range r.tokens {
		if subtle.ConstantTimeCompare([]byte(r.tokens[i].Token), []byte(token)) == 1 {
			match = &r.tokens[i]
		}
	}
	if match == nil {
		return nil, ErrUnauthenticated
	}
	return &Principal{UserID: match.UserID, IsAdmin: match.IsAdmin}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

var _ Resolver = (*StaticResolver)(nil)
