package middleware_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"taskbot/backend/internal/middleware"
	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBotToken = "12345:test-bot-token"

// signInitData builds a web-app payload signed the way the chat platform
// signs it, so the middleware under test accepts it.
func signInitData(botToken string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	checkString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func userPayload(externalID int64, username, firstName string) map[string]string {
	return map[string]string{
		"auth_date": "1700000000",
		"user": fmt.Sprintf(`{"id":%d,"username":%q,"first_name":%q}`,
			externalID, username, firstName),
	}
}

func newAuthTestRouter(t *testing.T, whitelistedIDs []int64) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	users := services.NewUserDirectory(db, whitelistedIDs)

	router := gin.New()
	router.GET("/probe", middleware.InitDataAuth(testBotToken, users), func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "external_id": user.ExternalID})
	})
	return router, db
}

func TestValidateInitData(t *testing.T) {
	initData := signInitData(testBotToken, userPayload(42, "alice", "Alice"))

	values, err := middleware.ValidateInitData(initData, testBotToken)
	require.NoError(t, err)
	assert.Contains(t, values.Get("user"), `"id":42`)
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	initData := signInitData(testBotToken, userPayload(42, "alice", "Alice"))
	tampered := strings.Replace(initData, "alice", "mallory", 1)

	_, err := middleware.ValidateInitData(tampered, testBotToken)
	assert.ErrorIs(t, err, middleware.ErrInvalidInitData)
}

func TestValidateInitDataRejectsWrongToken(t *testing.T) {
	initData := signInitData("999:other-token", userPayload(42, "alice", "Alice"))

	_, err := middleware.ValidateInitData(initData, testBotToken)
	assert.ErrorIs(t, err, middleware.ErrInvalidInitData)
}

func TestInitDataAuthCreatesAndAdmitsWhitelistedUser(t *testing.T) {
	router, db := newAuthTestRouter(t, []int64{42})

	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set(middleware.InitDataHeader, signInitData(testBotToken, userPayload(42, "alice", "Alice")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, db.Where("external_id = ?", 42).First(&user).Error)
	assert.Equal(t, models.UserStatusWhitelisted, user.Status)
}

func TestInitDataAuthBlocksPendingUser(t *testing.T) {
	router, _ := newAuthTestRouter(t, nil)

	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set(middleware.InitDataHeader, signInitData(testBotToken, userPayload(42, "alice", "Alice")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInitDataAuthRejectsMissingHeader(t *testing.T) {
	router, _ := newAuthTestRouter(t, nil)

	req, _ := http.NewRequest("GET", "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/admin", middleware.AdminAuth("secret-token"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req, _ := http.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ = http.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-Admin-Token", "secret-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
