package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/observability/metrics"
)

func priyaContext(t *testing.T) *PatientContext {
	t.Helper()
	w := seedWard(t)
	pc, err := NewSnapshotBuilder(w.store, nil, testLogger()).Build(context.Background(), w.priya.ID)
	require.NoError(t, err)
	return pc
}

func TestExternalAssistant_NetworkFailureSynthesizesFromContext(t *testing.T) {
	client := &stubLLM{err: errors.New("dial tcp: connection refused")}
	a := NewExternalAssistant(ExternalConfig{Client: client, Logger: testLogger()})
	pc := priyaContext(t)

	text, source := a.Ask(context.Background(), "how is she doing overall", pc)
	assert.Equal(t, SourceSynthesized, source)
	assert.Contains(t, text, "Priya Sharma")
	assert.Contains(t, text, "Coronary artery disease")
	assert.Contains(t, text, "Surgeries: Coronary Artery Bypass Graft (2025-03-10)")
	assert.Contains(t, text, "Latest vitals (post-op day 2): BP 124/80, HR 84, Temp 37.2, SpO2 97%, Pain 4/10")
	assert.Contains(t, text, "Recovery milestones: 1 of 2 achieved")
	assert.Contains(t, text, closingText)
}

func TestExternalAssistant_NoContextApologizes(t *testing.T) {
	a := NewExternalAssistant(ExternalConfig{Client: &stubLLM{err: errors.New("503 Service Unavailable")}, Logger: testLogger()})
	text, source := a.Ask(context.Background(), "hello", nil)
	assert.Equal(t, apologyText, text)
	assert.Equal(t, SourceApology, source)
}

func TestExternalAssistant_EmptyCandidateFallsBack(t *testing.T) {
	a := NewExternalAssistant(ExternalConfig{Client: &stubLLM{resp: LLMResponse{Text: "  "}}, Logger: testLogger()})
	text, source := a.Ask(context.Background(), "summary please", priyaContext(t))
	assert.Equal(t, SourceSynthesized, source)
	assert.Contains(t, text, "Patient: Priya Sharma")
}

func TestExternalAssistant_NoClientConfigured(t *testing.T) {
	a := NewExternalAssistant(ExternalConfig{Logger: testLogger()})
	_, source := a.Ask(context.Background(), "anything", nil)
	assert.Equal(t, SourceApology, source)
}

func TestExternalAssistant_SuccessSendsContextAndSampling(t *testing.T) {
	client := &stubLLM{resp: LLMResponse{Text: "She is recovering well."}}
	reg := prometheus.NewRegistry()
	a := NewExternalAssistant(ExternalConfig{Client: client, Model: "gemini-test", Logger: testLogger(), Metrics: metrics.NewAssistantMetrics(reg)})

	text, source := a.Ask(context.Background(), "how is she doing", priyaContext(t))
	assert.Equal(t, "She is recovering well.", text)
	assert.Equal(t, SourceExternal, source)

	req := client.last
	assert.Equal(t, "gemini-test", req.Model)
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Equal(t, int32(40), req.TopK)
	assert.Equal(t, float32(0.95), req.TopP)
	assert.Equal(t, int32(1024), req.MaxTokens)
	require.Len(t, req.System, 2)
	assert.Contains(t, req.System[1], "Patient: Priya Sharma")
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "how is she doing", req.Messages[0].Content)
}

func TestExternalAssistant_TimeoutTriggersFallback(t *testing.T) {
	client := &stubLLM{wait: true}
	a := NewExternalAssistant(ExternalConfig{Client: client, Timeout: 20 * time.Millisecond, Logger: testLogger()})

	start := time.Now()
	_, source := a.Ask(context.Background(), "hello", nil)
	assert.Equal(t, SourceApology, source)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFallbackLLMClient(t *testing.T) {
	primary := &stubLLM{err: errors.New("quota exceeded")}
	secondary := &stubLLM{resp: LLMResponse{Text: "from bedrock"}}
	c := NewFallbackLLMClient(primary, secondary, nil)

	resp, err := c.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from bedrock", resp.Text)
	assert.Equal(t, 1, primary.hits)
	assert.Equal(t, 1, secondary.hits)

	c = NewFallbackLLMClient(primary, nil, nil)
	_, err = c.Complete(context.Background(), LLMRequest{})
	assert.EqualError(t, err, "quota exceeded")

	secondary.err = errors.New("throttled")
	c = NewFallbackLLMClient(primary, secondary, nil)
	_, err = c.Complete(context.Background(), LLMRequest{})
	assert.EqualError(t, err, "throttled")
}
