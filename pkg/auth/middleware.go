package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Roles understood by RequireRole. Admin passes every role check.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Authentication methods recorded on a Principal
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "apikey"
)

type principalKey struct{}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	Email  string
	Role   string
	Method string
}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored in ctx
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// AuthMiddleware authenticates requests with a bearer JWT or an X-API-Key
// header. Invalid credentials are always rejected; missing credentials
// are only accepted when the middleware is optional.
type AuthMiddleware struct {
	jwtManager    *JWTManager
	apiKeyManager *APIKeyManager
	optional      bool
	logger        logrus.FieldLogger
}

// NewAuthMiddleware creates a new authentication middleware. Either
// manager may be nil to disable that method.
func NewAuthMiddleware(jwtManager *JWTManager, apiKeyManager *APIKeyManager, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:    jwtManager,
		apiKeyManager: apiKeyManager,
		optional:      optional,
		logger:        logrus.StandardLogger(),
	}
}

// SetLogger sets the logger used for rejected requests
func (m *AuthMiddleware) SetLogger(logger logrus.FieldLogger) {
	m.logger = logger
}

// Handler returns the HTTP middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.authenticate(r)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).WithError(err).Warn("Authentication failed")
			writeError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}
		if p == nil {
			if !m.optional {
				writeError(w, http.StatusUnauthorized, "Unauthorized: no credentials provided")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// authenticate returns nil, nil when the request carries no credentials
func (m *AuthMiddleware) authenticate(r *http.Request) (*Principal, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || m.jwtManager == nil {
			return nil, errUnsupportedAuth
		}
		claims, err := m.jwtManager.Verify(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		return &Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			Method: MethodJWT,
		}, nil
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		if m.apiKeyManager == nil {
			return nil, errUnsupportedAuth
		}
		apiKey, err := m.apiKeyManager.Verify(key)
		if err != nil {
			return nil, err
		}
		return &Principal{
			UserID: apiKey.UserID,
			Role:   apiKey.Role,
			Method: MethodAPIKey,
		}, nil
	}
	return nil, nil
}

var errUnsupportedAuth = errors.New("unsupported authorization scheme")

// GetUserID returns the authenticated user ID
func GetUserID(r *http.Request) (string, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return "", false
	}
	return p.UserID, true
}

// GetUserEmail returns the authenticated user's email, if the credential
// carried one
func GetUserEmail(r *http.Request) (string, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok || p.Email == "" {
		return "", false
	}
	return p.Email, true
}

// GetUserRole returns the authenticated user's role
func GetUserRole(r *http.Request) (string, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return "", false
	}
	return p.Role, true
}

// GetAuthMethod returns how the request was authenticated
func GetAuthMethod(r *http.Request) (string, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return "", false
	}
	return p.Method, true
}

// RequireRole only lets through callers holding one of roles, or admin.
// Requests without a principal are rejected with 401.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized: no credentials provided")
				return
			}
			if p.Role == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Forbidden: insufficient permissions")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
