package http

import (
	_ "embed"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/service"
)

//go:embed static/index.html
var indexHTML []byte

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleChat answers GET /chat?<urlencoded inquiry> as streamed plain text.
// The whole query string is the inquiry; /reset and /review travel in-band.
func (s *Server) handleChat(c *gin.Context) {
	inquiry, err := url.QueryUnescape(c.Request.URL.RawQuery)
	if err != nil {
		inquiry = c.Request.URL.RawQuery
	}
	inquiry = strings.TrimSpace(inquiry)
	if inquiry == "" {
		c.String(http.StatusBadRequest, "Missing inquiry")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch inquiry {
	case "/reset":
		s.history.Reset()
		c.String(http.StatusOK, "History cleared\n")
		return
	case "/review":
		if entry, ok := s.history.Last(); ok {
			c.String(http.StatusOK, service.RenderReview(entry)+"\n")
		} else {
			c.String(http.StatusOK, "Nothing to review yet\n")
		}
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	flusher, _ := c.Writer.(http.Flusher)
	wrote := false
	stream := service.StreamFunc(func(delta string) {
		wrote = true
		io.WriteString(c.Writer, delta)
		if flusher != nil {
			flusher.Flush()
		}
	})

	tracker := service.NewTracker()
	start := time.Now()

	run := service.NewContext(inquiry, s.history.All(), service.Join(tracker, stream))
	run, err = s.pipeline.Run(c.Request.Context(), run)
	if err != nil {
		s.logger.Error("chat request failed", zap.Error(err))
		if !wrote {
			c.String(http.StatusInternalServerError, "Error: %v", err)
		}
		return
	}

	if !wrote {
		// Empty answer: no references survived the search.
		c.Status(http.StatusOK)
	}
	s.history.Append(run.Entry(time.Since(start), tracker.Events()))
}
