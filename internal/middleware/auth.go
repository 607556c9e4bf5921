package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ecochamps/internal/config"
	"ecochamps/internal/contextutils"
	"ecochamps/internal/response"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewTokenIssuer creates a token issuer from auth configuration.
func NewTokenIssuer(cfg *config.AuthConfig, logger *zap.Logger) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
		logger: logger,
	}
}

// GenerateToken issues a signed token for the given account.
func (t *TokenIssuer) GenerateToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token string and returns its claims.
func (t *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// OptionalAuth stores the authenticated identity in the request context when
// a valid bearer token is present, and passes the request through untouched
// otherwise. Used on endpoints that enrich responses for known callers.
func OptionalAuth(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if tokenString, ok := strings.CutPrefix(header, "Bearer "); ok {
				if claims, err := issuer.ParseToken(tokenString); err == nil {
					ctx := contextutils.WithUserID(r.Context(), claims.UserID)
					ctx = contextutils.WithUserEmail(ctx, claims.Email)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated identity in the request context.
func RequireAuth(issuer *TokenIssuer, builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				builder.WriteUnauthorized(w, r, "missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				builder.WriteUnauthorized(w, r, "authorization header must use the Bearer scheme")
				return
			}

			claims, err := issuer.ParseToken(tokenString)
			if err != nil {
				issuer.logger.Debug("Token rejected",
					zap.Error(err),
					zap.String("request_id", contextutils.GetRequestID(r.Context())),
				)
				builder.WriteUnauthorized(w, r, "invalid or expired token")
				return
			}

			ctx := contextutils.WithUserID(r.Context(), claims.UserID)
			ctx = contextutils.WithUserEmail(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
