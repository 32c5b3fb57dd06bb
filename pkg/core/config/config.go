package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Provider ProviderConfig `toml:"provider"`
	Console  ConsoleConfig  `toml:"console"`
	Capture  CaptureConfig  `toml:"capture"`
	Playback PlaybackConfig `toml:"playback"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// GatewayConfig holds relay gateway settings
type GatewayConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ProviderTimeout Duration `toml:"provider_timeout"`
	StreamInterval  Duration `toml:"stream_interval"`
	MaxUploadBytes  int64    `toml:"max_upload_bytes"`
	GlossaryPath    string   `toml:"glossary_path"`
	CORS            CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// ProviderConfig holds external AI provider settings.
// The API key is deliberately absent: it is read only from the
// OPENAI_API_KEY environment variable so it never lands in a file.
type ProviderConfig struct {
	BaseURL        string `toml:"base_url"`
	ChatModel      string `toml:"chat_model"`
	TranscribeModel string `toml:"transcribe_model"`
	SpeechModel    string `toml:"speech_model"`
	Voice          string `toml:"voice"`
}

// ConsoleConfig holds console client settings
type ConsoleConfig struct {
	GatewayURL string   `toml:"gateway_url"`
	SourceLang string   `toml:"source_lang"`
	TargetLang string   `toml:"target_lang"`
	DebounceMs int      `toml:"debounce_ms"`
	Timeout    Duration `toml:"timeout"`
}

// CaptureConfig holds audio capture settings
type CaptureConfig struct {
	InputDevice         string `toml:"input_device"`
	SampleRate          int    `toml:"sample_rate"`
	BufferSize          int    `toml:"buffer_size"`
	VADMode             int    `toml:"vad_mode"`
	SilenceDurationMs   int    `toml:"silence_duration_ms"`
	MinSpeechDurationMs int    `toml:"min_speech_duration_ms"`
}

// PlaybackConfig holds playback settings
type PlaybackConfig struct {
	Mode   string `toml:"mode"` // "native" or "relay"
	Voice  string `toml:"voice"`
	Format string `toml:"format"`
}

// Duration wraps time.Duration for TOML text parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Gateway: GatewayConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{120 * time.Second},
			ProviderTimeout: Duration{60 * time.Second},
			StreamInterval:  Duration{2 * time.Second},
			MaxUploadBytes:  25 << 20,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
			},
		},
		Provider: ProviderConfig{
			ChatModel:       "gpt-4o-mini",
			TranscribeModel: "whisper-1",
			SpeechModel:     "gpt-4o-mini-tts",
			Voice:           "alloy",
		},
		Console: ConsoleConfig{
			GatewayURL: "http://localhost:8080",
			SourceLang: "auto",
			TargetLang: "es",
			DebounceMs: 400,
			Timeout:    Duration{60 * time.Second},
		},
		Capture: CaptureConfig{
			InputDevice:         "default",
			SampleRate:          16000,
			BufferSize:          512,
			VADMode:             2,
			SilenceDurationMs:   900,
			MinSpeechDurationMs: 300,
		},
		Playback: PlaybackConfig{
			Mode:   "native",
			Format: "mp3",
		},
	}
}

// Load loads configuration from a TOML file on top of the defaults
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadOrDefault loads the given config file, falls back to well-known
// locations, and returns defaults when no file exists anywhere.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	for _, p := range []string{
		"./configs/config.toml",
		"./config.toml",
		filepath.Join(os.Getenv("HOME"), ".config/carebridge/config.toml"),
	} {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	cfg := Default()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// APIKey returns the provider credential from the environment.
// An empty result at serve startup is fatal.
func APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CAREBRIDGE_HOST"); v != "" {
		c.Gateway.Host = v
	}
	if v := os.Getenv("CAREBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Gateway.Port = port
		}
	}
	if v := os.Getenv("CAREBRIDGE_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := os.Getenv("CAREBRIDGE_GATEWAY_URL"); v != "" {
		c.Console.GatewayURL = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Provider.ChatModel = v
	}
	if v := os.Getenv("STT_MODEL"); v != "" {
		c.Provider.TranscribeModel = v
	}
	if v := os.Getenv("TTS_MODEL"); v != "" {
		c.Provider.SpeechModel = v
	}
	if v := os.Getenv("TTS_VOICE"); v != "" {
		c.Provider.Voice = v
	}
}
