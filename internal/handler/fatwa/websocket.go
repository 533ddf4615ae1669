package fatwa

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xamsadine/backend/internal/service/pipeline"
)

// WebSocketHandler drives the clarification dialogue over a single
// websocket connection: each inbound text frame is one user turn, each
// outbound frame the pipeline's reply.
type WebSocketHandler struct {
	orchestrator *pipeline.Orchestrator
	log          *zap.Logger
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler creates the dialogue websocket handler.
func NewWebSocketHandler(orchestrator *pipeline.Orchestrator, log *zap.Logger) *WebSocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketHandler{
		orchestrator: orchestrator,
		log:          log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fatwa/ws/{sessionID}", h.handleDialogue)
}

type dialogueFrame struct {
	Text string `json:"text"`
}

func (h *WebSocketHandler) handleDialogue(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var frame dialogueFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		if frame.Text == "" {
			continue
		}

		reply, err := h.orchestrator.SubmitMessage(r.Context(), sessionID, frame.Text)
		if err != nil {
			h.log.Error("turn aborted", zap.String("session", sessionID), zap.Error(err))
			_ = conn.WriteJSON(pipeline.Reply{
				SessionID: sessionID,
				Kind:      pipeline.ReplyError,
				Message:   "failed to process message",
			})
			return
		}

		if err := conn.WriteJSON(reply); err != nil {
			h.log.Warn("websocket write failed", zap.String("session", sessionID), zap.Error(err))
			return
		}
	}
}
