package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/internal/observability/metrics"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

const emptyMessageText = "Please type a question about a patient, a department, a procedure or a condition."

// AskRequest is one message from a staff member.
type AskRequest struct {
	Message   string         `json:"message"`
	PatientID string         `json:"patient_id,omitempty"`
	Caller    *auth.Identity `json:"-"`
}

// AskResponse is what the chat surfaces return.
type AskResponse struct {
	Response string `json:"response"`
	Intent   Intent `json:"intent"`
	Source   Source `json:"source"`
}

// Service runs the full pipeline: route locally, else snapshot and ask the
// external assistant.
type Service struct {
	router    *Router
	snapshots *SnapshotBuilder
	external  *ExternalAssistant
	chatLog   ChatLog
	metrics   *metrics.AssistantMetrics
	logger    *logging.Logger
}

// ServiceDeps wires a Service. ChatLog and Metrics may be nil.
type ServiceDeps struct {
	Router    *Router
	Snapshots *SnapshotBuilder
	External  *ExternalAssistant
	ChatLog   ChatLog
	Metrics   *metrics.AssistantMetrics
	Logger    *logging.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Router == nil || deps.Snapshots == nil || deps.External == nil {
		panic("assistant: router, snapshot builder and external assistant are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Service{
		router:    deps.Router,
		snapshots: deps.Snapshots,
		external:  deps.External,
		chatLog:   deps.ChatLog,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Ask answers one message. It never returns an error; a panic anywhere in
// the pipeline becomes a generic error reply.
func (s *Service) Ask(ctx context.Context, req AskRequest) (resp AskResponse) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("assistant pipeline panicked", "panic", r, "patient_id", req.PatientID)
			resp = AskResponse{
				Response: fmt.Sprintf("Sorry, there was an error processing your request: %v", r),
				Intent:   IntentError,
				Source:   SourceError,
			}
		}
		s.metrics.ObserveIntent(string(resp.Intent))
	}()

	q := Query{
		Text:      normalize(req.Message),
		Raw:       req.Message,
		PatientID: strings.TrimSpace(req.PatientID),
		Caller:    req.Caller,
	}
	if q.Text == "" {
		return AskResponse{Response: emptyMessageText, Intent: IntentEmpty, Source: SourceLocal}
	}

	if answer, ok := s.router.Route(ctx, q); ok {
		s.metrics.ObserveLatency("local", time.Since(start).Seconds())
		resp = AskResponse{Response: answer.Text, Intent: answer.Intent, Source: SourceLocal}
		s.record(ctx, q, resp, nil)
		return resp
	}

	var pc *PatientContext
	if q.HasPatient() {
		var err error
		pc, err = s.snapshots.Build(ctx, q.PatientID)
		if err != nil {
			level := s.logger.Warn
			if errors.Is(err, clinical.ErrPatientNotFound) {
				level = s.logger.Info
			}
			level("no patient context for external assistant", "patient_id", q.PatientID, "error", err)
		}
	}
	text, source := s.external.Ask(ctx, req.Message, pc)
	s.metrics.ObserveLatency("external", time.Since(start).Seconds())
	resp = AskResponse{Response: text, Intent: IntentExternal, Source: source}
	s.record(ctx, q, resp, pc)
	return resp
}

// History returns the caller's chat log, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ChatLogEntry, error) {
	if s.chatLog == nil {
		return nil, nil
	}
	return s.chatLog.ListByUser(ctx, userID, limit)
}

func (s *Service) record(ctx context.Context, q Query, resp AskResponse, pc *PatientContext) {
	if s.chatLog == nil || !q.Authenticated() {
		return
	}
	entry := ChatLogEntry{
		UserID:    q.Caller.UserID,
		PatientID: q.PatientID,
		Message:   q.Raw,
		Response:  resp.Response,
		Intent:    resp.Intent,
	}
	if pc != nil {
		if data, err := json.Marshal(pc); err == nil {
			entry.Context = data
		}
	}
	if err := s.chatLog.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append chat log", "user_id", q.Caller.UserID, "error", err)
	}
}
