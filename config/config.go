package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendOpenAI = "openai"
	BackendHTTP   = "http"
)

type Transcription struct {
	Backend string `mapstructure:"backend"`
	URL     string `mapstructure:"url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

type Classification struct {
	Backend    string `mapstructure:"backend"`
	URL        string `mapstructure:"url"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	PromptFile string `mapstructure:"prompt_file"`
}

type Generation struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

type Services struct {
	Transcription  Transcription  `mapstructure:"transcription"`
	Classification Classification `mapstructure:"classification"`
	Generation     Generation     `mapstructure:"generation"`
}

type Batch struct {
	Concurrency int           `mapstructure:"concurrency"`
	Interval    time.Duration `mapstructure:"interval"`
}

type Root struct {
	Pipeline struct {
		Name     string `mapstructure:"name"`
		LogLvl   string `mapstructure:"log_level"`
		Language string `mapstructure:"language"`
	} `mapstructure:"pipeline"`
	Services Services `mapstructure:"services"`
	Batch    Batch    `mapstructure:"batch"`
	Paths    struct {
		Outputs string `mapstructure:"outputs"`
		History string `mapstructure:"history"`
		Styles  string `mapstructure:"styles"`
	} `mapstructure:"paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "dream-pipeline")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.language", "fr")

	v.SetDefault("services.transcription.backend", BackendOpenAI)
	v.SetDefault("services.transcription.url", "https://api.groq.com/openai/v1")
	v.SetDefault("services.transcription.model", "whisper-large-v3-turbo")
	v.SetDefault("services.transcription.api_key", "")

	v.SetDefault("services.classification.backend", BackendOpenAI)
	v.SetDefault("services.classification.url", "https://api.mistral.ai/v1")
	v.SetDefault("services.classification.model", "mistral-large-latest")
	v.SetDefault("services.classification.api_key", "")
	v.SetDefault("services.classification.prompt_file", "")

	v.SetDefault("services.generation.url", "https://image.pollinations.ai")
	v.SetDefault("services.generation.timeout", 10*time.Second)
	v.SetDefault("services.generation.token", "")

	v.SetDefault("batch.concurrency", 2)
	v.SetDefault("batch.interval", 5*time.Second)

	v.SetDefault("paths.outputs", filepath.Join("data", "generated_images"))
	v.SetDefault("paths.history", "")
	v.SetDefault("paths.styles", "")
}

// Load reads path, or the first existing config/<CONFIG_ENV>/config.yaml, config.yaml
// when path is empty. Missing files fall back to defaults; DREAM_* variables override.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// provider credentials keep their usual variable names
	if err := v.BindEnv("services.transcription.api_key", "DREAM_SERVICES_TRANSCRIPTION_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("services.classification.api_key", "DREAM_SERVICES_CLASSIFICATION_API_KEY", "MISTRAL_API_KEY"); err != nil {
		return nil, err
	}

	if path == "" {
		path = guess()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func guess() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	for _, p := range []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Root) Validate() error {
	for name, backend := range map[string]string{
		"transcription":  c.Services.Transcription.Backend,
		"classification": c.Services.Classification.Backend,
	} {
		if backend != BackendOpenAI && backend != BackendHTTP {
			return fmt.Errorf("config: unknown %s backend %q", name, backend)
		}
	}
	if c.Services.Generation.URL == "" {
		return errors.New("config: services.generation.url is required")
	}
	if c.Services.Generation.Timeout <= 0 {
		return errors.New("config: services.generation.timeout must be > 0")
	}
	if c.Batch.Concurrency < 1 {
		return errors.New("config: batch.concurrency must be >= 1")
	}
	if c.Batch.Interval < 0 {
		return errors.New("config: batch.interval must be >= 0")
	}
	return nil
}
