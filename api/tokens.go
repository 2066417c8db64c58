package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v4"
)

// jwtEnv holds raw env values before post-parse validation.
type jwtEnv struct {
	Secret           string `env:"JWT_SECRET"`
	Issuer           string `env:"JWT_ISSUER"`
	Audience         string `env:"JWT_AUDIENCE"`
	ExpiresInMinutes int    `env:"JWT_EXPIRES_IN_MINUTES" envDefault:"60"`
}

type jwtConfig struct {
	secret           []byte
	issuer           string
	audience         string
	expiresInMinutes int
}

func loadJWTConfigFromEnv() (jwtConfig, error) {
	var raw jwtEnv
	if err := env.Parse(&raw); err != nil {
		return jwtConfig{}, fmt.Errorf("parse jwt env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	if secret == "" {
		return jwtConfig{}, errors.New("JWT_SECRET is required")
	}
	if issuer == "" {
		return jwtConfig{}, errors.New("JWT_ISSUER is required")
	}
	if audience == "" {
		return jwtConfig{}, errors.New("JWT_AUDIENCE is required")
	}
	if raw.ExpiresInMinutes <= 0 {
		return jwtConfig{}, errors.New("JWT_EXPIRES_IN_MINUTES must be positive")
	}
	return jwtConfig{
		secret:           []byte(secret),
		issuer:           issuer,
		audience:         audience,
		expiresInMinutes: raw.ExpiresInMinutes,
	}, nil
}

// appClaims is the claim set carried by issued tokens: the registered
// claims plus the numeric user id.
type appClaims struct {
	UID int `json:"uid"`
	jwt.RegisteredClaims
}

func issueToken(cfg jwtConfig, u *user) (string, error) {
	now := time.Now()
	claims := appClaims{
		UID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Issuer:    cfg.issuer,
			Audience:  jwt.ClaimStrings{cfg.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.expiresInMinutes) * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.secret)
}

// parseToken verifies the signature, expiry, issuer and audience of a token
// and returns its claims. The token is self-contained: no store lookup.
func parseToken(cfg jwtConfig, tokenStr string) (*appClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &appClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*appClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.VerifyIssuer(cfg.issuer, true) {
		return nil, errors.New("invalid token issuer")
	}
	if !claims.VerifyAudience(cfg.audience, true) {
		return nil, errors.New("invalid token audience")
	}
	return claims, nil
}
