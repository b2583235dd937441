package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadConfigsYAML(t *testing.T) {
	path := writeTempFile(t, "publishers.yaml", `
publishers:
  - name: hook
    kind: HTTP
    enabled: true
    endpoint: https://example.com/hook
  - name: queue
    kind: sqs
    enabled: false
    region: us-east-1
    queue_url: https://sqs/q
`)

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(cfgs))
	}
	if cfgs[0].Kind != KindHTTP {
		t.Fatalf("expected kind to be lowercased, got %q", cfgs[0].Kind)
	}
	if cfgs[1].QueueURL != "https://sqs/q" {
		t.Fatalf("unexpected queue url %q", cfgs[1].QueueURL)
	}
}

func TestLoadConfigsJSON(t *testing.T) {
	path := writeTempFile(t, "publishers.json", `{
  "publishers": [
    {"name": "topic", "kind": "sns", "enabled": true, "topic_arn": "arn:aws:sns:::t"}
  ]
}`)

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(cfgs) != 1 || cfgs[0].TopicARN != "arn:aws:sns:::t" {
		t.Fatalf("unexpected configs: %+v", cfgs)
	}
}

func TestLoadConfigsDuplicateName(t *testing.T) {
	path := writeTempFile(t, "publishers.yaml", `
publishers:
  - name: hook
    kind: http
  - name: hook
    kind: sqs
`)

	if _, err := LoadConfigs(path); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestLoadConfigsMissingName(t *testing.T) {
	path := writeTempFile(t, "publishers.yaml", `
publishers:
  - kind: http
`)

	if _, err := LoadConfigs(path); err == nil {
		t.Fatalf("expected missing name error")
	}
}
