package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

const identityKey = "freightdesk/identity"

// IdentityMiddleware resolves the acting user once per request from the
// headers the auth proxy sets. Downstream handlers receive an explicit
// Identity value; nothing reads ambient user state.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-Id")
		if raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				c.Set(identityKey, entity.Identity{
					UserID:   id,
					UserName: c.GetHeader("X-User-Name"),
				})
			}
		}
		c.Next()
	}
}

// identityFrom returns the resolved identity, zero when the request carried
// no usable user headers.
func identityFrom(c *gin.Context) entity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(entity.Identity); ok {
			return id
		}
	}
	return entity.Identity{}
}
