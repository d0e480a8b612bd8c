package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/amoghcc/coffee-shop-rewards/internal/ledger"
	"github.com/amoghcc/coffee-shop-rewards/internal/util"

	"github.com/gin-gonic/gin"
)

const feedHeartbeatInterval = 15 * time.Second

// FeedHandler streams ledger deltas to the dashboard over Server-Sent
// Events. The stream is notification-only: a client that misses events
// (reconnect, full buffer) re-lists from its last seen sequence number.
type FeedHandler struct {
	Feed *ledger.Feed
}

func NewFeedHandler(feed *ledger.Feed) *FeedHandler {
	return &FeedHandler{Feed: feed}
}

// StreamFeed handles GET /api/feed.
func (h *FeedHandler) StreamFeed(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	flusher.Flush()

	sub := h.Feed.Subscribe(user.UID)
	defer sub.Close()

	ctx := c.Request.Context()
	ticker := time.NewTicker(feedHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// comment frame keeps proxies from closing an idle stream
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-sub.C():
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("marshal feed event: %v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
