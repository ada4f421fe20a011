package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/platform/httpx"
)

// defaultTokenTTL bounds how long an issued access token stays valid.
const defaultTokenTTL = 30 * time.Minute

// Auth validates API keys and mints short-lived bearer tokens.
type Auth struct {
	secret   []byte
	apiKeys  map[string]bool
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuth builds the authenticator. The signing secret is required; API
// keys may be empty, in which case only previously minted tokens work.
func NewAuth(secretKey string, apiKeys []string) (*Auth, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, apperrors.New(apperrors.CodeAuthMissingCredentials, "signing secret is required")
	}
	keys := make(map[string]bool, len(apiKeys))
	for _, key := range apiKeys {
		if key = strings.TrimSpace(key); key != "" {
			keys[key] = true
		}
	}
	return &Auth{
		secret:   []byte(secretKey),
		apiKeys:  keys,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}, nil
}

// ValidAPIKey reports whether the key is in the configured set.
func (a *Auth) ValidAPIKey(key string) bool {
	return a.apiKeys[strings.TrimSpace(key)]
}

// IssueToken exchanges a valid API key for a signed HS256 bearer token.
func (a *Auth) IssueToken(apiKey string) (string, time.Duration, error) {
	if !a.ValidAPIKey(apiKey) {
		return "", 0, apperrors.New(apperrors.CodeAuthInvalidAPIKey, "api key is not recognized")
	}
	issuedAt := a.now().UTC()
	claims := jwt.MapClaims{
		"sub": "api-client",
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(a.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.CodeUnknown, "sign access token", err)
	}
	return token, a.tokenTTL, nil
}

// ValidateToken checks a bearer token's signature and expiry.
func (a *Auth) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return apperrors.Wrap(apperrors.CodeAuthInvalidToken, "bearer token is invalid", err)
	}
	return nil
}

// RequireAuth authorizes requests by X-API-Key header or bearer token.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			if a.ValidAPIKey(apiKey) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.WriteError(w, apperrors.New(apperrors.CodeAuthInvalidAPIKey, "api key is not recognized"))
			return
		}

		authorization := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
			if err := a.ValidateToken(strings.TrimSpace(token)); err != nil {
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		httpx.WriteError(w, apperrors.New(apperrors.CodeAuthMissingCredentials, "credentials are required"))
	})
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleToken mints a bearer token for a valid API key.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, apperrors.Wrap(apperrors.CodeAuthMissingCredentials, "api_key is required", err))
		return
	}
	token, ttl, err := s.auth.IssueToken(body.APIKey)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}
