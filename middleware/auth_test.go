package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inozem/hw05-final/config"
	"github.com/Inozem/hw05-final/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		JWTSecret: "test-secret",
	})
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.Use(CurrentUser())
	r.GET("/create/", LoginRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "user %v", ctx.MustGet(ContextUserIDKey))
	})
	return r
}

func TestLoginRequiredRedirectsAnonymous(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fcreate%2F", w.Header().Get("Location"))
}

func TestCurrentUserResolvesSessionCookie(t *testing.T) {
	token, err := utils.GenerateToken(42, "leo", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user 42", w.Body.String())
}

func TestCurrentUserIgnoresGarbageCookie(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCurrentUserRejectsRevokedSession(t *testing.T) {
	token, err := utils.GenerateToken(42, "leo", time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}
