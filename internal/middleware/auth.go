package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// InitDataHeader carries the signed web-app payload on every request.
const InitDataHeader = "X-Telegram-Init-Data"

var ErrInvalidInitData = errors.New("init data signature mismatch")

type initDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// InitDataAuth validates the signed init data the chat web app attaches to
// each request, upserts the sender into the user directory and stores the
// resolved user on the request context. Blacklisted and not-yet-approved
// users are rejected here so handlers never see them.
func InitDataAuth(botToken string, users services.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing init data",
			})
			return
		}

		values, err := ValidateInitData(raw, botToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid init data",
			})
			return
		}

		var sender initDataUser
		if err := json.Unmarshal([]byte(values.Get("user")), &sender); err != nil || sender.ID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "malformed user payload",
			})
			return
		}

		user, err := users.GetOrCreateUser(c.Request.Context(),
			sender.ID, sender.Username, sender.FirstName, sender.LastName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to resolve user",
			})
			return
		}

		if user.IsBlacklisted() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied",
			})
			return
		}
		if !user.IsWhitelisted() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "account awaiting approval",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// ValidateInitData checks the HMAC signature of a web-app init data payload.
// The data-check string is every field except hash, sorted by key and joined
// with newlines; the signing secret is HMAC-SHA256 of the bot token under the
// constant key "WebAppData".
func ValidateInitData(initData, botToken string) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidInitData
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	checkString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrInvalidInitData
	}
	return values, nil
}

// AdminAuth guards the admin surface with a static token header.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if adminToken == "" || !hmac.Equal([]byte(token), []byte(adminToken)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access denied",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser pulls the authenticated user set by InitDataAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
