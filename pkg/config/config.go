package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like channel credentials and LLM provider choices.
type Config struct {
	// Channels contains a map of channel identifiers (e.g., "telegram", "web")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the configuration for the LLM provider groups in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// SystemPrompt is the persona instruction prepended to every tutoring prompt.
	SystemPrompt string `json:"system_prompt"`
	// DatabasePath locates the SQLite file holding users, topics, history and quizzes.
	DatabasePath string `json:"database_path"`
}

// Validate ensures the configuration structure contains all mandatory fields.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are stored in system.json and control routing,
// memory and quiz behavior rather than business configuration.
type SystemConfig struct {
	// MaxRetries is the number of times a transient LLM error is retried
	// before the next provider (or the degraded message) takes over.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for one
	// completion request. The context is cancelled when exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// MemoryWindow is the number of prior interactions injected into a
	// prompt when memory is enabled for the turn.
	MemoryWindow int `json:"memory_window"`
	// MemoryMaxChars caps the length of each injected history snippet.
	MemoryMaxChars int `json:"memory_max_chars"`
	// QuizQuestionLimit is the number of questions after which an active
	// quiz session finishes and reports its score.
	QuizQuestionLimit int `json:"quiz_question_limit"`
	// ResponseSize selects the answer length rule: "short", "normal" or "long".
	ResponseSize string `json:"response_size"`
	// PlotDir is the directory where plot artifacts are written.
	PlotDir string `json:"plot_dir"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with safe
// default values. This is used as a fallback when the system.json file is
// missing or corrupt, ensuring the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:        3,
		RetryDelayMs:      500,
		LLMTimeoutMs:      60000,
		MemoryWindow:      3,
		MemoryMaxChars:    280,
		QuizQuestionLimit: 10,
		ResponseSize:      "normal",
		PlotDir:           "plots",
		LogLevel:          "info",
	}
}

// Load reads and parses the JSON configuration files from the current working
// directory. config.json (app config) is mandatory; system.json falls back to
// defaults when missing or unparseable.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "mentor.sqlite3"
	}

	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
