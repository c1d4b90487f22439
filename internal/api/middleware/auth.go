package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/pkg/common"
)

// ContextUserID 經 JWT 驗證後的使用者 ID 鍵名
const ContextUserID = "auth_user_id"

// Auth JWT Bearer 驗證中間件，驗證通過後將使用者 ID 寫入請求上下文
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing bearer token",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.LogWarn("JWT 驗證失敗",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token claims",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token missing subject",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(ContextUserID, sub)
		c.Next()
	}
}

// AdminKey 管理端點驗證，比對 x-admin-key 標頭
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("x-admin-key") != key {
			common.LogWarn("管理金鑰驗證失敗",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid admin key",
				"code":  common.ErrCodeForbidden,
			})
			return
		}
		c.Next()
	}
}

// AuthUserID 取出經驗證的使用者 ID
func AuthUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
