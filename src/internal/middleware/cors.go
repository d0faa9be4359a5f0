package middleware

import (
	"path"

	"github.com/gin-gonic/gin"
)

// CORS allows the listed origins. Entries may be "*" or a path.Match pattern
// such as "http://localhost:*".
func CORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowed := matchOrigin(origins, origin); allowed != "" {
				c.Header("Access-Control-Allow-Origin", allowed)
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, user_id")
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func matchOrigin(origins []string, origin string) string {
	for _, pattern := range origins {
		if pattern == "*" {
			return "*"
		}
		if ok, _ := path.Match(pattern, origin); ok {
			return origin
		}
	}
	return ""
}
