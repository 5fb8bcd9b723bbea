package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Dedupe   Dedupe   `yaml:"dedupe"`
	Rotation Rotation `yaml:"rotation"`
	Entities []string `yaml:"entities"`
	LLM      LLM      `yaml:"llm"`
	TTS      TTS      `yaml:"tts"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Sources struct {
	Feeds       []Feed      `yaml:"feeds"`
	YouthFilter YouthFilter `yaml:"youth_filter"`
}

type Feed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Limit    int    `yaml:"limit"`
}

// YouthFilter restricts general-news feeds to topics the 20-30 age
// target audience reads about. Entertainment and sports feeds bypass it.
type YouthFilter struct {
	Enabled  bool     `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
}

type Dedupe struct {
	Mode                string  `yaml:"mode"` // strict or url-only
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	KeywordRatio        float64 `yaml:"keyword_ratio"`
	KeywordMinCommon    int     `yaml:"keyword_min_common"`
}

type Rotation struct {
	Variant             string  `yaml:"variant"` // threshold or binary
	MinRequired         int     `yaml:"min_required"`
	MaxHistory          int     `yaml:"max_history"`
	DailyReset          bool    `yaml:"daily_reset"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	KeywordRatio        float64 `yaml:"keyword_ratio"`
	KeywordMinCommon    int     `yaml:"keyword_min_common"`
}

type LLM struct {
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	OllamaURL         string `yaml:"ollama_url"`
	OpenAIModel       string `yaml:"openai_model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	MaxTokens         int    `yaml:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type TTS struct {
	Model             string   `yaml:"model"`
	Format            string   `yaml:"format"`
	Voices            []string `yaml:"voices"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	MaxTextLength     int      `yaml:"max_text_length"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for eigonews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "eigonews")
}

// DataDir returns the XDG data directory for eigonews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "eigonews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/eigonews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'eigonews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			YouthFilter: YouthFilter{
				Enabled:  true,
				Keywords: DefaultYouthKeywords,
			},
		},
		Dedupe: Dedupe{
			Mode:                "strict",
			SimilarityThreshold: 0.85,
			KeywordRatio:        0.5,
			KeywordMinCommon:    2,
		},
		Rotation: Rotation{
			Variant:             "threshold",
			MinRequired:         5,
			MaxHistory:          15,
			DailyReset:          true,
			SimilarityThreshold: 0.7,
			KeywordRatio:        0.5,
			KeywordMinCommon:    3,
		},
		Entities: DefaultEntities,
		LLM: LLM{
			Provider:          "openai",
			Model:             "qwen2.5:7b",
			OllamaURL:         "http://localhost:11434",
			OpenAIModel:       "gpt-4o-mini",
			APIKeyEnv:         "OPENAI_API_KEY",
			MaxTokens:         3000,
			RequestsPerMinute: 30,
		},
		TTS: TTS{
			Model:             "tts-1",
			Format:            "mp3",
			Voices:            []string{"alloy", "fable"},
			APIKeyEnv:         "OPENAI_API_KEY",
			RequestsPerMinute: 10,
			MaxTextLength:     4000,
		},
		Server:  Server{Port: 3000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Dedupe.Mode {
	case "strict", "url-only":
	default:
		return fmt.Errorf("dedupe.mode must be strict or url-only, got %q", c.Dedupe.Mode)
	}
	switch c.Rotation.Variant {
	case "threshold", "binary":
	default:
		return fmt.Errorf("rotation.variant must be threshold or binary, got %q", c.Rotation.Variant)
	}
	if c.Rotation.MinRequired < 1 {
		return fmt.Errorf("rotation.min_required must be positive, got %d", c.Rotation.MinRequired)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// AudioDir returns the directory where synthesized audio files live.
func (c *Config) AudioDir() string {
	return filepath.Join(c.GetDataDir(), "audio")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
