package middleware

import "github.com/gin-gonic/gin"

// abortJSON stops the chain with the same error envelope the handlers use.
// It lives here because handlers import this package, not the other way round.
func abortJSON(c *gin.Context, status int, code, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"message":    msg,
		"code":       code,
		"request_id": asString(rid),
	})
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
