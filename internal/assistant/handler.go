package assistant

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

const maxMessageBytes = 4 << 10

// Handler exposes the assistant over HTTP and WebSocket.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts /chat, /history and /ws.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/chat", h.Chat)
	r.Get("/history", h.History)
	r.Handle("/ws", websocket.Handler(h.serveSocket))
	return r
}

type chatRequest struct {
	Message   string `json:"message"`
	PatientID string `json:"patient_id"`
}

// Chat handles POST /assistant/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp := h.service.Ask(r.Context(), AskRequest{
		Message:   req.Message,
		PatientID: req.PatientID,
		Caller:    callerFrom(r),
	})
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /assistant/history?limit=
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "sign in to view chat history")
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	entries, err := h.service.History(r.Context(), id.UserID, limit)
	if err != nil {
		h.logger.Error("failed to load chat history", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	if entries == nil {
		entries = []ChatLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

// serveSocket answers one chat message per JSON frame until the peer leaves.
func (h *Handler) serveSocket(conn *websocket.Conn) {
	defer conn.Close()
	r := conn.Request()
	caller := callerFrom(r)
	for {
		var req chatRequest
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			if err != io.EOF {
				h.logger.Debug("websocket receive ended", "error", err)
			}
			return
		}
		resp := h.service.Ask(r.Context(), AskRequest{
			Message:   req.Message,
			PatientID: req.PatientID,
			Caller:    caller,
		})
		if err := websocket.JSON.Send(conn, resp); err != nil {
			h.logger.Warn("websocket send failed", "error", err)
			return
		}
	}
}

func callerFrom(r *http.Request) *auth.Identity {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
