package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// DefaultTokenTTL is the lifetime of tokens issued by NewToken when ttl is zero.
var DefaultTokenTTL = 6 * time.Hour

var (
	ErrMissingToken = errors.New("no authorization header")
	ErrTokenFormat  = errors.New("unknown token format")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the claims of an admin token.
type Claims struct {
	jwt.StandardClaims

	Operator string `json:"operator"`
}

// NewToken signs an HS256 admin token for operator.
func NewToken(secret, operator string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty token secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   operator,
		},
		Operator: operator,
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates tokenString against secret and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func extractToken(hdr string) (string, error) {
	if hdr == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(hdr, " ")
	if !ok || token == "" {
		return "", ErrTokenFormat
	}

	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token), nil
	default:
		return "", ErrTokenFormat
	}
}

// requireToken rejects requests without a valid admin token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r.Header.Get("Authorization"))
		if err == nil {
			_, err = ParseToken(s.config.authSecret, token)
		}
		if err != nil {
			s.logger.Debug("admin request rejected",
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			w.Header().Set("WWW-Authenticate", `Bearer realm="sputil"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
