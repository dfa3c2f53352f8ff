package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/postop-assistant/internal/observability/metrics"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

const (
	defaultAssistantTimeout = 20 * time.Second

	assistantTemperature = 0.7
	assistantTopK        = 40
	assistantTopP        = 0.95
	assistantMaxTokens   = 1024

	apologyText = "I'm sorry, I couldn't reach the assistant service right now. Please try again, or select a patient and ask about their surgeries, vitals, medications, or milestones."
	closingText = "Ask me about surgeries, vitals, medications, or milestones for more detail."
)

const systemPrompt = `You are a clinical assistant for hospital staff on cardiology, oncology and surgery wards.
Answer concisely in plain text without markdown.
Use only the patient context provided; if something is not in the context, say it is not recorded.
Do not invent values, doses or dates.`

// ExternalAssistant answers messages the router could not, using an LLM.
// It never fails: provider errors and empty output fall back to a local
// summary of the snapshot, or an apology when there is none.
type ExternalAssistant struct {
	client  LLMClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.AssistantMetrics
}

// ExternalConfig configures NewExternalAssistant. A nil Client disables the
// external call entirely.
type ExternalConfig struct {
	Client  LLMClient
	Model   string
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.AssistantMetrics
}

func NewExternalAssistant(cfg ExternalConfig) *ExternalAssistant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAssistantTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &ExternalAssistant{
		client:  cfg.Client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Ask returns the model's answer, or a local fallback and its source.
func (a *ExternalAssistant) Ask(ctx context.Context, message string, pc *PatientContext) (string, Source) {
	if a.client == nil {
		a.metrics.ObserveExternal("disabled")
		return a.fallback(pc)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Complete(callCtx, a.request(message, pc))
	if err != nil {
		a.metrics.ObserveExternal("error")
		a.logger.Warn("external assistant failed", "error", err, "has_context", pc != nil)
		return a.fallback(pc)
	}
	if strings.TrimSpace(resp.Text) == "" {
		a.metrics.ObserveExternal("empty")
		a.logger.Warn("external assistant returned no text", "stop_reason", resp.StopReason)
		return a.fallback(pc)
	}
	a.metrics.ObserveExternal("ok")
	a.logger.Debug("external assistant answered",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Text, SourceExternal
}

func (a *ExternalAssistant) request(message string, pc *PatientContext) LLMRequest {
	system := []string{systemPrompt}
	if pc != nil {
		system = append(system, "Selected patient context:\n"+pc.PromptText())
	}
	return LLMRequest{
		Model:       a.model,
		System:      system,
		Messages:    []Turn{{Role: RoleUser, Content: message}},
		MaxTokens:   assistantMaxTokens,
		Temperature: assistantTemperature,
		TopK:        assistantTopK,
		TopP:        assistantTopP,
	}
}

func (a *ExternalAssistant) fallback(pc *PatientContext) (string, Source) {
	if pc == nil {
		return apologyText, SourceApology
	}
	return synthesize(pc), SourceSynthesized
}

// synthesize summarizes a snapshot without the model.
func synthesize(pc *PatientContext) string {
	p := pc.Patient
	lines := []string{
		fmt.Sprintf("Patient: %s (Age %d, %s, Status: %s)", p.FullName, pc.Age, p.Department.Title(), p.Status),
	}
	if rec := pc.LatestRecord; rec != nil {
		lines = append(lines, "Diagnosis: "+rec.Diagnosis)
	} else {
		lines = append(lines, "Diagnosis: no medical records found")
	}
	if len(pc.Surgeries) > 0 {
		parts := make([]string, 0, len(pc.Surgeries))
		for _, s := range pc.Surgeries {
			parts = append(parts, fmt.Sprintf("%s (%s)", s.SurgeryType, formatDate(s.SurgeryDate)))
		}
		lines = append(lines, "Surgeries: "+strings.Join(parts, ", "))
	} else {
		lines = append(lines, "Surgeries: none recorded")
	}
	if n := pc.LatestNote; n != nil {
		lines = append(lines, fmt.Sprintf("Latest vitals (post-op day %d): %s, Pain %d/10",
			n.DayNumber, formatVitalSigns(n.VitalSigns), n.PainLevel))
	} else {
		lines = append(lines, "Latest vitals: no post-op notes found")
	}
	if len(pc.Milestones) > 0 {
		lines = append(lines, fmt.Sprintf("Recovery milestones: %d of %d achieved", achievedCount(pc.Milestones), len(pc.Milestones)))
	} else {
		lines = append(lines, "Recovery milestones: none recorded")
	}
	lines = append(lines, "", closingText)
	return strings.Join(lines, "\n")
}
