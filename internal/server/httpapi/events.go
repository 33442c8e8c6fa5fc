package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// events streams one "change" event per wake-up of the change feed. A
// comment line is written every keepAlive so idle proxies keep the
// connection open.
func (s *HTTPServer) events(c *gin.Context) {
	ctx := c.Request.Context()

	changed := make(chan struct{}, 1)
	unsubscribe := s.users.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	h := c.Writer.Header()
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	io.WriteString(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-changed:
			c.SSEvent("change", gin.H{})
			return true
		}
	})
}
