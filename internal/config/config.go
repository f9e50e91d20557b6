package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EchoSensitivity controls how aggressively the system-echo stage attenuates.
type EchoSensitivity string

const (
	SensitivityLow    EchoSensitivity = "low"
	SensitivityMedium EchoSensitivity = "medium"
	SensitivityHigh   EchoSensitivity = "high"
)

// ScenarioMode pins or auto-detects the acoustic scenario for a stage.
type ScenarioMode string

const (
	ScenarioAuto       ScenarioMode = "auto"
	ScenarioEarphones  ScenarioMode = "earphones"
	ScenarioHeadphones ScenarioMode = "headphones"
	ScenarioSpeakers   ScenarioMode = "speakers"
)

type Config struct {
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// AudioConfig is the immutable per-session audio configuration. The session
// controller snapshots it at start; later updates never affect an in-flight
// recording.
type AudioConfig struct {
	SampleRate              int             `mapstructure:"sample_rate" yaml:"sample_rate"`
	SystemAudioEnabled      bool            `mapstructure:"system_audio_enabled" yaml:"system_audio_enabled"`
	EchoCancellationEnabled bool            `mapstructure:"echo_cancellation_enabled" yaml:"echo_cancellation_enabled"`
	EchoSensitivity         EchoSensitivity `mapstructure:"echo_sensitivity" yaml:"echo_sensitivity"`
	SystemAudioScenario     ScenarioMode    `mapstructure:"system_audio_scenario" yaml:"system_audio_scenario"`
	VoiceRecordingMode      ScenarioMode    `mapstructure:"voice_recording_mode" yaml:"voice_recording_mode"`
}

type CaptureConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`             // "auto", "process", "stream"
	MicSource    string `mapstructure:"mic_source" yaml:"mic_source"`       // empty means default device
	SystemSource string `mapstructure:"system_source" yaml:"system_source"` // empty means default monitor
	FFmpegPath   string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

var defaultConfig = Config{
	Audio: AudioConfig{
		SampleRate:              16000,
		SystemAudioEnabled:      true,
		EchoCancellationEnabled: true,
		EchoSensitivity:         SensitivityMedium,
		SystemAudioScenario:     ScenarioAuto,
		VoiceRecordingMode:      ScenarioAuto,
	},
	Capture: CaptureConfig{
		Backend:    "auto",
		FFmpegPath: "ffmpeg",
	},
	Output: OutputConfig{
		Directory: filepath.Join(os.Getenv("HOME"), "Audio", "DuoCap"),
	},
	Server: ServerConfig{
		Port: "8080",
	},
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/duocap.yaml")
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the config file at path, merging it over the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", defaultConfig.Audio.SampleRate)
	v.SetDefault("audio.system_audio_enabled", defaultConfig.Audio.SystemAudioEnabled)
	v.SetDefault("audio.echo_cancellation_enabled", defaultConfig.Audio.EchoCancellationEnabled)
	v.SetDefault("audio.echo_sensitivity", string(defaultConfig.Audio.EchoSensitivity))
	v.SetDefault("audio.system_audio_scenario", string(defaultConfig.Audio.SystemAudioScenario))
	v.SetDefault("audio.voice_recording_mode", string(defaultConfig.Audio.VoiceRecordingMode))
	v.SetDefault("capture.backend", defaultConfig.Capture.Backend)
	v.SetDefault("capture.ffmpeg_path", defaultConfig.Capture.FFmpegPath)
	v.SetDefault("output.directory", defaultConfig.Output.Directory)
	v.SetDefault("server.port", defaultConfig.Server.Port)
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// Validate checks all fields and reports every invalid one.
func (c *Config) Validate() error {
	var problems []string

	if c.Audio.SampleRate <= 0 {
		problems = append(problems, fmt.Sprintf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}

	switch c.Audio.EchoSensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		problems = append(problems, fmt.Sprintf("audio.echo_sensitivity must be low, medium or high, got %q", c.Audio.EchoSensitivity))
	}

	switch c.Audio.SystemAudioScenario {
	case ScenarioAuto, ScenarioEarphones, ScenarioSpeakers:
	default:
		problems = append(problems, fmt.Sprintf("audio.system_audio_scenario must be auto, earphones or speakers, got %q", c.Audio.SystemAudioScenario))
	}

	switch c.Audio.VoiceRecordingMode {
	case ScenarioAuto, ScenarioHeadphones, ScenarioSpeakers:
	default:
		problems = append(problems, fmt.Sprintf("audio.voice_recording_mode must be auto, headphones or speakers, got %q", c.Audio.VoiceRecordingMode))
	}

	switch strings.ToLower(c.Capture.Backend) {
	case "auto", "process", "stream":
	default:
		problems = append(problems, fmt.Sprintf("capture.backend must be auto, process or stream, got %q", c.Capture.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return nil
}

// ApplyUpdates applies a partial set of key/value updates (dotted keys, as
// exposed by the config API and CLI) and revalidates. Unknown keys are
// rejected.
func (c *Config) ApplyUpdates(updates map[string]string) error {
	for key, value := range updates {
		if err := c.applyUpdate(key, value); err != nil {
			return err
		}
	}
	return c.Validate()
}

func (c *Config) applyUpdate(key, value string) error {
	switch key {
	case "audio.sample_rate":
		var rate int
		if _, err := fmt.Sscanf(value, "%d", &rate); err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		c.Audio.SampleRate = rate
	case "audio.system_audio_enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		c.Audio.SystemAudioEnabled = b
	case "audio.echo_cancellation_enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		c.Audio.EchoCancellationEnabled = b
	case "audio.echo_sensitivity":
		c.Audio.EchoSensitivity = EchoSensitivity(strings.ToLower(value))
	case "audio.system_audio_scenario":
		c.Audio.SystemAudioScenario = ScenarioMode(strings.ToLower(value))
	case "audio.voice_recording_mode":
		c.Audio.VoiceRecordingMode = ScenarioMode(strings.ToLower(value))
	case "capture.backend":
		c.Capture.Backend = strings.ToLower(value)
	case "capture.mic_source":
		c.Capture.MicSource = value
	case "capture.system_source":
		c.Capture.SystemSource = value
	case "capture.ffmpeg_path":
		c.Capture.FFmpegPath = value
	case "output.directory":
		c.Output.Directory = value
	case "server.port":
		c.Server.Port = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
