package heartbeat

import "github.com/gin-gonic/gin"

// GinMiddleware adapts the handler to a gin middleware. Requests that
// target the heartbeat route are answered and the chain is aborted;
// everything else continues down the chain.
func (h *Handler) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.handles(c.Request) {
			c.Next()
			return
		}
		h.serve(c.Writer, c.Request)
		c.Abort()
	}
}
