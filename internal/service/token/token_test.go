package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ndanilko/storefront/internal/models"
)

func newTokenService(t *testing.T) *TokenService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestRotateToken(t *testing.T) {
	svc := newTokenService(t)

	refresh, err := SignRefreshToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, refresh, 7, "user"))

	access, newRefresh, err := svc.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, newRefresh)
	require.NotEqual(t, refresh, newRefresh)

	// The old refresh token is revoked by rotation.
	var old models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", refresh).First(&old).Error)
	require.True(t, old.Revoked)

	_, _, err = svc.RotateToken(refresh)
	require.Error(t, err)
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	svc := newTokenService(t)

	access, err := SignAccessToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)

	_, err = ValidateRefresh(access, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}

func mwContext(e *echo.Echo, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAutoRefreshMiddleware(t *testing.T) {
	svc := newTokenService(t)
	e := echo.New()

	var gotUserID uint
	next := func(c echo.Context) error {
		gotUserID, _ = c.Get("userID").(uint)
		return c.NoContent(http.StatusOK)
	}
	mw := svc.AutoRefreshMiddleware(next)

	// No cookies at all.
	c, _ := mwContext(e)
	err := mw(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)

	// Valid access token passes straight through.
	access, err := SignAccessToken(7, "user", svc.JWTSecret)
	require.NoError(t, err)
	c, _ = mwContext(e, &http.Cookie{Name: "accessToken", Value: access})
	require.NoError(t, mw(c))
	require.Equal(t, uint(7), gotUserID)

	// Expired access token plus a valid refresh token rotates and passes.
	expiredClaims := jwt.MapClaims{
		"sub":  float64(7),
		"role": "user",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(svc.JWTSecret)
	require.NoError(t, err)

	refresh, err := SignRefreshToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, refresh, 7, "user"))

	gotUserID = 0
	c, rec := mwContext(e,
		&http.Cookie{Name: "accessToken", Value: expired},
		&http.Cookie{Name: "refreshToken", Value: refresh},
	)
	require.NoError(t, mw(c))
	require.Equal(t, uint(7), gotUserID)

	names := make([]string, 0)
	for _, ck := range rec.Result().Cookies() {
		names = append(names, ck.Name)
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")
}

func TestAdminMiddlewareRejectsUserRole(t *testing.T) {
	svc := newTokenService(t)
	e := echo.New()

	mw := svc.AutoRefreshMiddlewareAdmin(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	access, err := SignAccessToken(7, "user", svc.JWTSecret)
	require.NoError(t, err)
	c, _ := mwContext(e, &http.Cookie{Name: "accessToken", Value: access})
	err = mw(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)

	adminAccess, err := SignAccessToken(7, "admin", svc.JWTSecret)
	require.NoError(t, err)
	c, _ = mwContext(e, &http.Cookie{Name: "accessToken", Value: adminAccess})
	require.NoError(t, mw(c))
}
