// Package auth is the authenticated-or-not gate in front of the API. Users
// carry an HS256 token either as a bearer credential or in the session
// cookie; the gate exposes the current user to handlers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"evictioncrm/pkg/logger"
)

const (
	// DefaultTTL bounds token lifetime when none is configured.
	DefaultTTL    = 24 * time.Hour
	// DefaultIssuer is written to and required in every token.
	DefaultIssuer = "evictioncrm"
	// DevSecret signs tokens outside production when no secret is set.
	DevSecret     = "evictioncrm-development-secret"
	// CookieName holds the session token for browser clients.
	CookieName    = "evictioncrm_session"
)

const userKey = "auth_user"

var (
	ErrNoSecret     = errors.New("auth: signing secret required")
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// User is the authenticated principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Claims is the token payload. The user id travels as the subject.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Gate issues and verifies tokens.
type Gate struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithIssuer(issuer string) Option { return func(g *Gate) { g.issuer = issuer } }
func WithClock(now func() time.Time) Option { return func(g *Gate) { g.now = now } }
func WithLogger(l *zap.Logger) Option { return func(g *Gate) { g.logger = l } }

// NewGate returns a gate signing with secret.
func NewGate(secret string, opts ...Option) (*Gate, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	g := &Gate{secret: []byte(secret), ttl: DefaultTTL, issuer: DefaultIssuer, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

// Issue signs a token for u and returns it with its expiry.
func (g *Gate) Issue(u User) (string, time.Time, error) {
	if strings.TrimSpace(u.ID) == "" {
		return "", time.Time{}, fmt.Errorf("auth: user id required")
	}
	now := g.now()
	expires := now.Add(g.ttl)
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns its user.
func (g *Gate) Verify(token string) (User, error) {
	if token == "" {
		return User{}, ErrMissingToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}

// Authenticate reads the bearer header, then the session cookie.
func (g *Gate) Authenticate(r *http.Request) (User, error) {
	token, err := tokenFrom(r)
	if err != nil {
		return User{}, err
	}
	return g.Verify(token)
}

// Middleware rejects requests without a valid token with 401 and stores the
// user on the context otherwise.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			user, err := g.Authenticate(c.Request())
			if err != nil {
				log.Warn("request not authenticated", zap.Error(err))
				msg := "invalid or expired token"
				if errors.Is(err, ErrMissingToken) {
					msg = "missing authorization token"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// RedirectToLogin sends unauthenticated browsers to loginPath.
func (g *Gate) RedirectToLogin(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := g.Authenticate(c.Request())
			if err != nil {
				return c.Redirect(http.StatusFound, loginPath)
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by the gate middleware.
func CurrentUser(c echo.Context) (User, bool) {
	u, ok := c.Get(userKey).(User)
	return u, ok
}

func tokenFrom(r *http.Request) (string, error) {
	if header := r.Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", fmt.Errorf("%w: expected Bearer token", ErrInvalidToken)
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrMissingToken
}
