package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/restapi"
)

// JWTAuthMiddleware 管理接口的Bearer认证。
// 通知回调路由不能挂这个中间件：调用方是远端服务商，不是浏览器会话。
func JWTAuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			// 未配置密钥时视为关闭认证（开发环境）
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errno.ErrUnauthorized
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}

		if cfg.Issuer != "" {
			if iss, _ := claims.GetIssuer(); iss != cfg.Issuer {
				restapi.Failed(c, errno.ErrUnauthorized)
				c.Abort()
				return
			}
		}

		if sub, _ := claims.GetSubject(); sub != "" {
			c.Set("user_uuid", sub)
		}
		c.Next()
	}
}
