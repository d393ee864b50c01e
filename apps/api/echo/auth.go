package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT. The
// subject is the platform user ID; tenant and role drive all access checks.
type Claims struct {
	jwt.StandardClaims
	Tenant string `json:"tenant,omitempty"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Actor converts the verified claims into the explicit caller identity the
// services expect.
func (c Claims) Actor() profile.Actor {
	return profile.Actor{
		ID:     c.Subject,
		Tenant: c.Tenant,
		Role:   c.Role,
		Email:  c.Email,
		Name:   c.Name,
	}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetActorClaims builds the claims for an actor; used when minting tokens.
func GetActorClaims(conf *core.Config, actor profile.Actor) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   actor.ID,
			Audience:  "Unigate",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Tenant: actor.Tenant,
		Role:   actor.Role,
		Email:  actor.Email,
		Name:   actor.Name,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", err
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (profile.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return profile.Actor{}, err
	}
	return claims.Actor(), nil
}

// parseToken verifies a raw bearer token outside the echo middleware; the
// websocket feed uses it since browsers cannot set headers on upgrade.
func parseToken(conf *core.Config, raw string) (Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnauthorized
		}
		return conf.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, errUnauthorized
	}
	return *claims, nil
}
