// Package auth identifies callers from signed bearer tokens. A token names a
// subject and the teams it belongs to; membership in the configured admin
// team is what makes a caller an admin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type User struct {
	ID    string
	Teams []string
}

func (u User) InTeam(id string) bool {
	for _, t := range u.Teams {
		if t == id {
			return true
		}
	}
	return false
}

type Options struct {
	Secret      string
	Issuer      string
	AdminTeamID string
}

type Provider struct {
	secret    []byte
	issuer    string
	adminTeam string
	now       func() time.Time
}

type claims struct {
	Teams []string `json:"teams"`
	jwt.RegisteredClaims
}

func NewProvider(opt Options) (*Provider, error) {
	if opt.Secret == "" {
		return nil, errors.New("auth: missing secret")
	}
	if opt.AdminTeamID == "" {
		return nil, errors.New("auth: missing admin team id")
	}
	return &Provider{
		secret:    []byte(opt.Secret),
		issuer:    opt.Issuer,
		adminTeam: opt.AdminTeamID,
		now:       time.Now,
	}, nil
}

// Issue signs a token for subject with the given team memberships.
func (p *Provider) Issue(subject string, teams []string, ttl time.Duration) (string, error) {
	now := p.now()
	c := claims{
		Teams: append([]string(nil), teams...),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the user it names.
func (p *Provider) Parse(token string) (User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, ErrTokenExpired
		}
		return User{}, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: c.Subject, Teams: c.Teams}, nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

// IsAdmin reports whether the caller in ctx belongs to the admin team.
func (p *Provider) IsAdmin(ctx context.Context) bool {
	u, ok := CurrentUser(ctx)
	return ok && u.InTeam(p.adminTeam)
}

func (p *Provider) AdminTeam() string {
	return p.adminTeam
}
