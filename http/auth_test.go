package http_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/shareline"
	sharelinehttp "github.com/sagarc03/shareline/http"
)

const (
	testProviderSecret = "provider-secret"
	testSessionSecret  = "session-secret"
)

func newSessions(t *testing.T) *sharelinehttp.Sessions {
	t.Helper()
	return sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
		ProviderSecret: testProviderSecret,
		SessionSecret:  testSessionSecret,
	})
}

func signAssertion(t *testing.T, secret, subject, name, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"name":  name,
		"email": email,
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestSessions_VerifyAssertion(t *testing.T) {
	sessions := newSessions(t)

	t.Run("valid assertion", func(t *testing.T) {
		assertion := signAssertion(t, testProviderSecret, "ext-123", "Ada", "ada@example.com")

		claims, err := sessions.VerifyAssertion(assertion)
		assert.NoError(t, err)
		assert.Equal(t, shareline.IdentityClaims{
			ExternalID: "ext-123",
			Name:       "Ada",
			Email:      "ada@example.com",
		}, claims)
	})

	t.Run("wrong secret", func(t *testing.T) {
		assertion := signAssertion(t, "not-the-provider", "ext-123", "Ada", "ada@example.com")

		_, err := sessions.VerifyAssertion(assertion)
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		assertion := signAssertion(t, testProviderSecret, "", "Ada", "ada@example.com")

		_, err := sessions.VerifyAssertion(assertion)
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})

	t.Run("session token is not an assertion", func(t *testing.T) {
		session, err := sessions.Issue(shareline.User{ID: 1})
		assert.NoError(t, err)

		_, err = sessions.VerifyAssertion(session)
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := sessions.VerifyAssertion("not.a.jwt")
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})
}

func TestSessions_IssueParse(t *testing.T) {
	sessions := newSessions(t)

	t.Run("roundtrip", func(t *testing.T) {
		token, err := sessions.Issue(shareline.User{ID: 42})
		assert.NoError(t, err)

		userID, err := sessions.Parse(token)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), userID)
	})

	t.Run("assertion is not a session", func(t *testing.T) {
		assertion := signAssertion(t, testProviderSecret, "42", "Ada", "ada@example.com")

		_, err := sessions.Parse(assertion)
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})

	t.Run("expired session", func(t *testing.T) {
		short := sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
			ProviderSecret: testProviderSecret,
			SessionSecret:  testSessionSecret,
			TTL:            -time.Hour,
		})

		token, err := short.Issue(shareline.User{ID: 42})
		assert.NoError(t, err)

		_, err = short.Parse(token)
		assert.ErrorIs(t, err, shareline.ErrUnauthorized)
	})
}

func TestSessions_Cookies(t *testing.T) {
	sessions := sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
		ProviderSecret: testProviderSecret,
		SessionSecret:  testSessionSecret,
		Secure:         true,
	})

	t.Run("set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sessions.SetCookie(rec, "token-value")

		cookies := rec.Result().Cookies()
		assert.Len(t, cookies, 1)

		c := cookies[0]
		assert.Equal(t, "shareline_session", c.Name)
		assert.Equal(t, "token-value", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Positive(t, c.MaxAge)
	})

	t.Run("clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sessions.ClearCookie(rec)

		cookies := rec.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}

func TestNewSessions_Defaults(t *testing.T) {
	sessions := sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
		ProviderSecret: testProviderSecret,
		SessionSecret:  testSessionSecret,
	})
	assert.Equal(t, "shareline_session", sessions.CookieName())

	named := sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
		ProviderSecret: testProviderSecret,
		SessionSecret:  testSessionSecret,
		CookieName:     "custom",
	})
	assert.Equal(t, "custom", named.CookieName())
}
