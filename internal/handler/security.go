package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/storefront/internal/domain/auth"
)

// Security authenticates API requests carrying "Authorization: Bearer
// <token>". The token is either an HS256 JWT signed with the configured
// secret or an API key whose HMAC-SHA256 is stored in the api_keys table.
type Security struct {
	apikeys   auth.Repository
	pepper    string
	jwtSecret []byte
}

// NewSecurity creates a Security. An empty jwtSecret disables JWT tokens.
func NewSecurity(apikeys auth.Repository, pepper, jwtSecret string) *Security {
	return &Security{
		apikeys:   apikeys,
		pepper:    pepper,
		jwtSecret: []byte(jwtSecret),
	}
}

// Middleware rejects unauthenticated requests with 401 and stores the
// principal of authenticated ones in the request context.
func (s *Security) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, auth.ErrUnauthenticated)
			return
		}
		p, err := s.authenticate(c, token)
		if err != nil {
			writeError(c, auth.ErrUnauthenticated)
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func (s *Security) authenticate(c *gin.Context, token string) (auth.Principal, error) {
	if len(s.jwtSecret) > 0 && strings.Count(token, ".") == 2 {
		return s.verifyJWT(token)
	}
	return s.verifyAPIKey(c, token)
}

func (s *Security) verifyJWT(token string) (auth.Principal, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return auth.Principal{}, errors.Wrap(err, "parse jwt")
	}
	if claims.Subject == "" {
		return auth.Principal{}, errors.New("jwt has no subject")
	}
	return auth.Principal{Subject: claims.Subject}, nil
}

func (s *Security) verifyAPIKey(c *gin.Context, key string) (auth.Principal, error) {
	hexHash := auth.HashKey(s.pepper, key)
	info, err := s.apikeys.FindByHash(c.Request.Context(), hexHash)
	if err != nil {
		return auth.Principal{}, err
	}

	// The lookup matched on the hash; compare again in constant time in
	// case the repository returned a different row.
	computed, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return auth.Principal{}, errors.New("api key hash mismatch")
	}
	return auth.Principal{Subject: info.ID, Scopes: info.Scopes}, nil
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// IssueToken signs an HS256 JWT for subject valid for ttl.
func IssueToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign jwt")
	}
	return token, nil
}
