package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/moritama/project-board-api/internal/errors"
	"github.com/moritama/project-board-api/internal/logging"
	"github.com/sony/gobreaker"
)

const allowedImageHost = "https://lh3.googleusercontent.com/"

// ProxyHandler streams Google profile images through the API so the frontend
// never talks to the upstream host directly.
type ProxyHandler struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewProxyHandler creates a ProxyHandler with a circuit breaker around the
// upstream image host.
func NewProxyHandler() *ProxyHandler {
	settings := gobreaker.Settings{
		Name:    "image-proxy",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.WithField("breaker", name).
				Infof("Circuit breaker state changed from %s to %s", from, to)
		},
	}

	return &ProxyHandler{
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ProxyImage fetches an avatar image from the allowed upstream host and
// streams it back with caching headers.
func (h *ProxyHandler) ProxyImage(c *gin.Context) {
	imageURL := c.Query("imageUrl")
	if imageURL == "" {
		apierrors.BadRequest(c, "imageUrl query parameter is required")
		return
	}

	if !strings.HasPrefix(imageURL, allowedImageHost) {
		apierrors.BadRequest(c, "Image host not allowed")
		return
	}

	result, err := h.breaker.Execute(func() (interface{}, error) {
		resp, err := h.client.Get(imageURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			apierrors.ServiceUnavailable(c, "Image service temporarily unavailable")
			return
		}
		logging.Logger.WithField("url", imageURL).Warnf("Image proxy fetch failed: %v", err)
		apierrors.InternalError(c, "Failed to fetch image")
		return
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logging.Logger.Warnf("Image proxy stream interrupted: %v", err)
	}
}
