package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const (
	processingTTL = 10 * time.Second
	completedTTL  = 24 * time.Hour
)

// Idempotency protege los POST/PUT/PATCH con una Idempotency-Key opcional:
// la misma key dos veces devuelve 409 en vez de repetir la mutación. El
// dedup de eventos consumidos NO pasa por aquí; eso lo hacen los handlers
// con la clave de negocio natural.
func Idempotency(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		idemKey := fmt.Sprintf("idempotency:%s", key)
		ctx := c.Request.Context()

		if _, err := client.Get(ctx, idemKey).Result(); err == nil {
			c.Header("X-Idempotency-Hit", "true")
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request already processed"})
			return
		} else if err != redis.Nil {
			// Redis caído: mejor servir sin protección que rechazar tráfico.
			c.Next()
			return
		}

		// Lock corto mientras la petición está en vuelo, para no quedar
		// bloqueados para siempre si el proceso cae a mitad.
		acquired, err := client.SetNX(ctx, idemKey, "PROCESSING", processingTTL).Result()
		if err != nil || !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "concurrent request"})
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			client.Set(ctx, idemKey, "COMPLETED", completedTTL)
		} else {
			// Las peticiones fallidas se pueden reintentar con la misma key.
			client.Del(ctx, idemKey)
		}
	}
}
