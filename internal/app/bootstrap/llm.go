package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/postop-assistant/cmd/mainconfig"
	"github.com/wolfman30/postop-assistant/internal/assistant"
	appconfig "github.com/wolfman30/postop-assistant/internal/config"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// BuildLLMClient wires Gemini as the primary provider and Bedrock as the
// fallback. Either may be absent; with neither it returns nil and the
// assistant answers from local context only.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (assistant.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var primary, secondary assistant.LLMClient
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := assistant.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		primary = gemini
		logger.Info("gemini assistant enabled", "model", cfg.GeminiModel)
	}

	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		secondary = assistant.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), model)
		logger.Info("bedrock assistant enabled", "model", model)
	}

	switch {
	case primary != nil && secondary != nil:
		return assistant.NewFallbackLLMClient(primary, secondary, logger.Logger), nil
	case primary != nil:
		return primary, nil
	case secondary != nil:
		return secondary, nil
	}
	logger.Warn("no external assistant configured; unmatched questions use local summaries")
	return nil, nil
}
