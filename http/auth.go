package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagarc03/shareline"
)

const defaultSessionTTL = 24 * time.Hour

// SessionConfig holds the secrets and cookie settings for session handling.
type SessionConfig struct {
	// ProviderSecret verifies identity assertions minted by the login
	// integration after it has authenticated the user with the provider.
	ProviderSecret string
	// SessionSecret signs the session cookies issued by this service.
	SessionSecret string
	// TTL bounds session lifetime (default: 24h).
	TTL time.Duration
	// CookieName names the session cookie (default: "shareline_session").
	CookieName string
	// Secure marks the session cookie as HTTPS-only.
	Secure bool
}

// Sessions verifies inbound identity assertions and manages session cookies.
// Assertions and sessions are both HS256 JWTs but are signed with different
// secrets, so a session token can never be replayed as an assertion.
type Sessions struct {
	config SessionConfig
}

func NewSessions(config SessionConfig) *Sessions {
	if config.TTL <= 0 {
		config.TTL = defaultSessionTTL
	}
	if config.CookieName == "" {
		config.CookieName = "shareline_session"
	}
	return &Sessions{config: config}
}

type assertionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// VerifyAssertion validates a provider-signed identity assertion and returns
// the verified claims. The subject is the stable external identity key.
func (s *Sessions) VerifyAssertion(token string) (shareline.IdentityClaims, error) {
	var claims assertionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.ProviderSecret), nil
	})
	if err != nil {
		return shareline.IdentityClaims{}, fmt.Errorf("verify assertion: %w: %w", shareline.ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return shareline.IdentityClaims{}, fmt.Errorf("verify assertion: %w: missing subject", shareline.ErrUnauthorized)
	}

	return shareline.IdentityClaims{
		ExternalID: claims.Subject,
		Name:       claims.Name,
		Email:      claims.Email,
	}, nil
}

// Issue mints a session token for the user.
func (s *Sessions) Issue(user shareline.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
	})

	signed, err := token.SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}

	return signed, nil
}

// Parse validates a session token and returns the local user id it carries.
func (s *Sessions) Parse(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse session: %w: %w", shareline.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session: %w: bad subject", shareline.ErrUnauthorized)
	}

	return userID, nil
}

// SetCookie attaches the session token to the response.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName exposes the configured cookie name, mainly for tests.
func (s *Sessions) CookieName() string {
	return s.config.CookieName
}
