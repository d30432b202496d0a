package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	token, err := IssueToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", token)
	require.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := IssueToken(testSecret, "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, token)
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	handler := Middleware(testSecret)(func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(testSecret, "user-1", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, "user-1", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		rec := httptest.NewRecorder()

		err := handler(e.NewContext(req, rec))
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		rec := httptest.NewRecorder()

		err := handler(e.NewContext(req, rec))
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}
