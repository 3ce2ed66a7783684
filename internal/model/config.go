package model

import "time"

// Config holds the full engine configuration. Defaults are overridden
// by config file, environment (CEPHALO_*) and CLI flags, in that order.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Matcher   MatcherConfig   `yaml:"matcher" mapstructure:"matcher"`
	Merger    MergerConfig    `yaml:"merger" mapstructure:"merger"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// EmbeddingConfig selects and tunes the similarity backend.
type EmbeddingConfig struct {
	// Provider name: "openai", "ollama", or "" to run rule-only.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model is the embedding model name (provider-specific).
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey for OpenAI (usually taken from OPENAI_API_KEY).
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL for custom endpoints (e.g. Ollama).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout per embedding request, seconds.
	Timeout int `yaml:"timeout" mapstructure:"timeout"`

	// CacheDir enables a persistent vector cache when non-empty.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`

	// RequestsPerSecond / Burst bound the call rate to the backend.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// Proxy settings, honored by the Ollama HTTP client.
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// MatcherConfig tunes the semantic vocabulary matcher.
type MatcherConfig struct {
	// SimilarityThreshold is the minimum similarity for a vocabulary
	// match. Tuned high because tokens are short and false positives
	// on red flags are costly.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// MinTokenLength filters out short words ("en", "de") that match
	// almost anything.
	MinTokenLength int `yaml:"min_token_length" mapstructure:"min_token_length"`

	// VocabularyPath optionally replaces the built-in vocabulary.
	VocabularyPath string `yaml:"vocabulary_path" mapstructure:"vocabulary_path"`
}

// MergerConfig tunes candidate reconciliation.
type MergerConfig struct {
	// AcceptanceFloor is the minimum confidence for a single-source
	// candidate to enter the case at all.
	AcceptanceFloor float64 `yaml:"acceptance_floor" mapstructure:"acceptance_floor"`

	// ConflictMargin: when two candidates of the same source disagree
	// and their confidences are within this margin, the field is left
	// conflicting instead of picking a side.
	ConflictMargin float64 `yaml:"conflict_margin" mapstructure:"conflict_margin"`
}

// SessionConfig tunes the in-memory session store.
type SessionConfig struct {
	// TTL after which an idle session may be evicted. Zero keeps
	// sessions until an explicit reset or delete.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RulesConfig selects the clinical rule table.
type RulesConfig struct {
	// Path optionally replaces the built-in rule table with a YAML file.
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig tunes the HTTP session-boundary service.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// OutputConfig tunes CLI output.
type OutputConfig struct {
	Verbose         bool   `yaml:"verbose" mapstructure:"verbose"`
	PrescriptionDir string `yaml:"prescription_dir" mapstructure:"prescription_dir"`
}

// DefaultConfig returns sensible defaults: rule-only extraction (no
// embedding backend), thresholds matching the tuned values of the
// vocabulary, sessions kept until reset.
func DefaultConfig() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:          "",
			Timeout:           15,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Matcher: MatcherConfig{
			SimilarityThreshold: 0.78,
			MinTokenLength:      3,
		},
		Merger: MergerConfig{
			AcceptanceFloor: 0.30,
			ConflictMargin:  0.15,
		},
		Session: SessionConfig{
			TTL: 0,
		},
		Server: ServerConfig{
			Port: 8087,
		},
		Output: OutputConfig{
			PrescriptionDir: "ordonnances",
		},
	}
}
