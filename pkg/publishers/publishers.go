package publishers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Publisher kinds understood by the default registry.
const (
	KindHTTP   = "http"
	KindSQS    = "sqs"
	KindSNS    = "sns"
	KindPubSub = "pubsub"
)

// PublisherConfig holds the settings for one downstream publisher.
// Kind selects the builder; the remaining fields are kind-specific and
// ignored by the kinds that do not use them.
type PublisherConfig struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"`
	Enabled bool   `yaml:"enabled" json:"enabled"`

	// http
	Endpoint string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// sqs / sns
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	QueueURL        string `yaml:"queue_url,omitempty" json:"queue_url,omitempty"`
	TopicARN        string `yaml:"topic_arn,omitempty" json:"topic_arn,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`

	// pubsub
	ProjectID       string `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	TopicID         string `yaml:"topic_id,omitempty" json:"topic_id,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty"`
}

type publisherFile struct {
	Publishers []PublisherConfig `yaml:"publishers" json:"publishers"`
}

// LoadConfigs reads publisher configurations from a YAML or JSON file.
func LoadConfigs(path string) ([]PublisherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading publishers file: %w", err)
	}

	var file publisherFile
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing publishers file %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for i := range file.Publishers {
		cfg := &file.Publishers[i]
		cfg.Name = strings.TrimSpace(cfg.Name)
		cfg.Kind = strings.TrimSpace(strings.ToLower(cfg.Kind))
		if cfg.Name == "" {
			return nil, fmt.Errorf("publisher at index %d has no name", i)
		}
		if cfg.Kind == "" {
			return nil, fmt.Errorf("publisher %s has no kind", cfg.Name)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate publisher name %s", cfg.Name)
		}
		seen[cfg.Name] = true
	}
	return file.Publishers, nil
}
