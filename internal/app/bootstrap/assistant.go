package bootstrap

import (
	"time"

	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/internal/observability/metrics"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// AssistantDeps collects what BuildAssistantService needs. Cache, LLM,
// ChatLog and Metrics may be nil.
type AssistantDeps struct {
	Clinical clinical.Store
	Cache    assistant.SnapshotCache
	LLM      assistant.LLMClient
	ChatLog  assistant.ChatLog
	Metrics  *metrics.AssistantMetrics
	Timeout  time.Duration
	Logger   *logging.Logger
}

// BuildAssistantService wires the router, snapshot builder and external
// assistant into one Service.
func BuildAssistantService(deps AssistantDeps) *assistant.Service {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return assistant.NewService(assistant.ServiceDeps{
		Router:    assistant.NewRouter(deps.Clinical, deps.Logger),
		Snapshots: assistant.NewSnapshotBuilder(deps.Clinical, deps.Cache, deps.Logger),
		External: assistant.NewExternalAssistant(assistant.ExternalConfig{
			Client:  deps.LLM,
			Timeout: deps.Timeout,
			Logger:  deps.Logger,
			Metrics: deps.Metrics,
		}),
		ChatLog: deps.ChatLog,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	})
}
