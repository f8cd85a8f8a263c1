package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkeye/CodeRoom/internal/assist"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// HistoryReader lists commits of a room, newest first.
type HistoryReader interface {
	List(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error)
}

// RoomLister reports active rooms.
type RoomLister interface {
	ListRooms() []core.RoomInfo
}

type handlers struct {
	history HistoryReader
	assist  assist.Client
	rooms   RoomLister
	ice     []webrtc.ICEServer
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listHistory(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	if !room.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	commits, err := h.history.List(c.Request.Context(), room, limit)
	if err != nil {
		logging.FromGin(c).Error().Err(err).Str("room", string(room)).Msg("history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, commits)
}

type askRequest struct {
	Prompt string `json:"prompt"`
	Code   string `json:"code"`
}

func (h *handlers) askAI(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	answer, err := h.assist.Ask(c.Request.Context(), req.Prompt, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"result": answer})
	case errors.Is(err, assist.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
	default:
		logging.FromGin(c).Error().Err(err).Msg("assistant call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
	}
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.ListRooms()})
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ice})
}

// withSTUNFallback always offers at least one STUN server.
func withSTUNFallback(servers []webrtc.ICEServer) []webrtc.ICEServer {
	for _, s := range servers {
		for _, u := range s.URLs {
			if strings.HasPrefix(u, "stun:") {
				return servers
			}
		}
	}
	return append([]webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}, servers...)
}
