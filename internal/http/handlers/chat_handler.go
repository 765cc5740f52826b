// README: Chat handler for dialogue turns, session reset, and history.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/internal/service"
)

// Full turns call several upstream APIs in sequence, so the budget is
// generous compared to a typical request handler.
const turnTimeout = 60 * time.Second

type ChatHandler struct {
	planner *service.Planner
}

func NewChatHandler(planner *service.Planner) *ChatHandler {
	return &ChatHandler{planner: planner}
}

type chatReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResp struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Plan      any    `json:"plan,omitempty"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	if req.SessionID != "" && !isValidSessionID(req.SessionID) {
		writeError(c, http.StatusBadRequest, "invalid session_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), turnTimeout)
	defer cancel()

	id, reply, err := h.planner.HandleTurn(ctx, req.SessionID, req.Message)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	resp := chatResp{SessionID: id, Kind: string(reply.Kind), Message: reply.Message}
	if reply.Plan != nil {
		resp.Plan = reply.Plan
	}
	writeJSON(c, http.StatusOK, resp)
}

// Reset handles POST /api/sessions/:id/reset.
func (h *ChatHandler) Reset(c *gin.Context) {
	id := c.Param("id")
	if !isValidSessionID(id) {
		writeError(c, http.StatusBadRequest, "invalid session_id")
		return
	}
	if err := h.planner.Reset(c.Request.Context(), id); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "reset"})
}

// History handles GET /api/sessions/:id/history.
func (h *ChatHandler) History(c *gin.Context) {
	id := c.Param("id")
	if !isValidSessionID(id) {
		writeError(c, http.StatusBadRequest, "invalid session_id")
		return
	}
	turns, err := h.planner.History(c.Request.Context(), id, 100)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"session_id": id, "turns": turns})
}
