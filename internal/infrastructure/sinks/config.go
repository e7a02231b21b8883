package sinks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TypeHTTP     = "http"
	TypeQueue    = "queue"
	TypeTelegram = "telegram"

	ProviderAWSSQS = "aws-sqs"
	ProviderAWSSNS = "aws-sns"
	ProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
	telegramDefaultAPIURL     = "https://api.telegram.org"
)

type configFile struct {
	Sinks []Config `json:"sinks" yaml:"sinks"`
}

// Config is one outbound mirror declared in the sinks file.
type Config struct {
	ID       string          `json:"id" yaml:"id"`
	Type     string          `json:"type" yaml:"type"`
	Enabled  *bool           `json:"enabled" yaml:"enabled"`
	HTTP     *HTTPConfig     `json:"http" yaml:"http"`
	Queue    *QueueConfig    `json:"queue" yaml:"queue"`
	Telegram *TelegramConfig `json:"telegram" yaml:"telegram"`
}

// HTTPConfig describes a webhook receiver.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// QueueConfig selects a cloud queue provider.
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	GCP      *PubSubConfig `json:"gcp" yaml:"gcp"`
}

// SQSConfig holds AWS SQS settings.
type SQSConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig holds AWS SNS settings.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// TelegramConfig points at a bot chat.
type TelegramConfig struct {
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
	APIURL   string `json:"api_url" yaml:"api_url"`
}

// EnabledValue returns the enabled flag defaulting to true.
func (c Config) EnabledValue() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoadConfigs reads a YAML or JSON sinks file. ${VAR} references are expanded
// from the environment before decoding. Disabled entries are dropped.
func LoadConfigs(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	file, err := parseConfigFile([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(file.Sinks))
	out := make([]Config, 0, len(file.Sinks))
	for i := range file.Sinks {
		cfg := sanitizeConfig(file.Sinks[i])
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate sink id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func parseConfigFile(data []byte, ext string) (configFile, error) {
	var file configFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return configFile{}, fmt.Errorf("decode json sinks: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return configFile{}, fmt.Errorf("decode yaml sinks: %w", err)
		}
	default:
		return configFile{}, fmt.Errorf("sinks file format %q not recognized (expected YAML or JSON)", ext)
	}
	return file, nil
}

func sanitizeConfig(cfg Config) Config {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.SQS != nil {
			s := *q.SQS
			s.QueueURL = strings.TrimSpace(s.QueueURL)
			s.Region = strings.TrimSpace(s.Region)
			s.AccessKeyID = strings.TrimSpace(s.AccessKeyID)
			s.SecretAccessKey = strings.TrimSpace(s.SecretAccessKey)
			q.SQS = &s
		}
		if q.SNS != nil {
			s := *q.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.Region = strings.TrimSpace(s.Region)
			s.AccessKeyID = strings.TrimSpace(s.AccessKeyID)
			s.SecretAccessKey = strings.TrimSpace(s.SecretAccessKey)
			q.SNS = &s
		}
		if q.GCP != nil {
			g := *q.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			q.GCP = &g
		}
		cfg.Queue = &q
	}
	if cfg.Telegram != nil {
		t := *cfg.Telegram
		t.BotToken = strings.TrimSpace(t.BotToken)
		t.ChatID = strings.TrimSpace(t.ChatID)
		t.APIURL = strings.TrimRight(strings.TrimSpace(t.APIURL), "/")
		if t.APIURL == "" {
			t.APIURL = telegramDefaultAPIURL
		}
		cfg.Telegram = &t
	}
	return cfg
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateConfig(cfg Config) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for sink %q", cfg.ID)
		}
	case TypeTelegram:
		if cfg.Telegram == nil || cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.bot_token and telegram.chat_id are required for sink %q", cfg.ID)
		}
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for sink %q", cfg.ID)
		}
		return validateQueueConfig(cfg.ID, cfg.Queue)
	case "":
		return fmt.Errorf("type is required for sink %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for sink %q", cfg.Type, cfg.ID)
	}
	return nil
}

func validateQueueConfig(id string, q *QueueConfig) error {
	var missing []string
	switch q.Provider {
	case ProviderAWSSQS:
		if q.SQS == nil {
			return fmt.Errorf("sqs config required for sink %q", id)
		}
		missing = missingFields(map[string]string{
			"sqs.uri":               q.SQS.QueueURL,
			"sqs.region":            q.SQS.Region,
			"sqs.access_key_id":     q.SQS.AccessKeyID,
			"sqs.secret_access_key": q.SQS.SecretAccessKey,
		})
	case ProviderAWSSNS:
		if q.SNS == nil {
			return fmt.Errorf("sns config required for sink %q", id)
		}
		missing = missingFields(map[string]string{
			"sns.topic_arn":         q.SNS.TopicARN,
			"sns.region":            q.SNS.Region,
			"sns.access_key_id":     q.SNS.AccessKeyID,
			"sns.secret_access_key": q.SNS.SecretAccessKey,
		})
	case ProviderGCP:
		if q.GCP == nil {
			return fmt.Errorf("gcp config required for sink %q", id)
		}
		missing = missingFields(map[string]string{
			"gcp.project_id": q.GCP.ProjectID,
			"gcp.topic":      q.GCP.Topic,
		})
	default:
		return fmt.Errorf("queue provider %q not supported for sink %q", q.Provider, id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required for sink %q", strings.Join(missing, ", "), id)
	}
	return nil
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for name, v := range fields {
		if v == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
}
