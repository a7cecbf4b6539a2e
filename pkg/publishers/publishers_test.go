package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestLoadRegistryParsesCloudSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: activity-queue
    type: sqs
    sqs:
      uri: https://sqs.us-east-1.amazonaws.com/123/activity
      region: us-east-1
  - id: activity-topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:123:activity
      region: us-east-1
  - id: activity-pubsub
    type: gcp_pubsub
    gcp_pubsub:
      project_id: pets-prod
      topic: pet-activity
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := len(reg.All()); got != 3 {
		t.Fatalf("expected 3 publishers, got %d", got)
	}
	cfg, ok := reg.ByID("activity-pubsub")
	if !ok || cfg.PubSub == nil || cfg.PubSub.Topic != "pet-activity" {
		t.Fatalf("gcp_pubsub entry wrong: %#v", cfg)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestValidatePublisherConfigRejectsMissingSNSTopic(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "s1",
		Type: TypeSNS,
		SNS:  &SNSPublisherConfig{Region: "us-east-1"},
	})
	if err == nil {
		t.Fatalf("expected validation error for missing sns.topic_arn")
	}
}
