package bootstrap

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	appconfig "github.com/wolfman30/postop-assistant/internal/config"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

func TestBuildLLMClientRequiresConfig(t *testing.T) {
	if _, err := BuildLLMClient(context.Background(), nil, logging.New("error")); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildLLMClientNoProvidersReturnsNil(t *testing.T) {
	client, err := BuildLLMClient(context.Background(), &appconfig.Config{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client without providers")
	}
}

func TestBuildLLMClientBedrockOnly(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		BedrockModelID:     "anthropic.claude-3-haiku-20240307-v1:0",
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}

	client, err := BuildLLMClient(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := client.(*assistant.BedrockLLMClient); !ok {
		t.Fatalf("expected bedrock client, got %T", client)
	}
}

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true); client != nil {
		t.Fatalf("expected nil client without address")
	}

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	defer client.Close()

	if cache := BuildSnapshotCache(client, &appconfig.Config{}); cache == nil {
		t.Fatalf("expected snapshot cache")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	if pool := ConnectPostgresPool(context.Background(), "", logging.New("error")); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestBuildStoresFallsBackToMemory(t *testing.T) {
	stores := BuildStores(nil, nil, logging.New("error"))
	if _, ok := stores.Clinical.(*clinical.MemoryStore); !ok {
		t.Fatalf("expected memory clinical store, got %T", stores.Clinical)
	}
	if stores.Profiles == nil || stores.ChatLog == nil {
		t.Fatalf("expected profile store and chat log")
	}
}
