package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vidora/vidora/internal/auth"
)

func TestAuthenticate_MissingToken(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	rec := f.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Unauthorized", resp.Error.Message)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := f.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Invalid access token", resp.Error.Message)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newRouterFixture()
	expired := auth.NewJWTManager(
		"test-access-secret-that-is-long-enough!!",
		"test-refresh-secret-that-is-long-enough!",
		-time.Minute,
		-time.Minute,
	)
	token, err := expired.GenerateAccessToken(testUserID, "chai", "chai@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := f.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Access token is expired", resp.Error.Message)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	f := newRouterFixture()
	token, err := f.jwtManager.GenerateAccessToken(testUserID, "chai", "chai@example.com")
	require.NoError(t, err)
	f.userRepo.On("GetByID", mock.Anything, testUserID).Return(nil, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := f.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_CookieAndHeaderBothWork(t *testing.T) {
	f := newRouterFixture()
	user := sampleUser()
	token := f.authorize(t, user)

	viaCookie := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	viaCookie.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	assert.Equal(t, http.StatusOK, f.serve(viaCookie).Code)

	viaHeader := httptest.NewRequest(http.MethodGet, "/api/v1/users/current", nil)
	viaHeader.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, f.serve(viaHeader).Code)
}

func TestCORS_PreflightNoContent(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := f.serve(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_UnlistedOriginGetsNoAllowHeader(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec := f.serve(req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	handler := CORS(CORSConfig{Environment: "development"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Origin", "http://whoever.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHealthLive(t *testing.T) {
	f := newRouterFixture()

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
