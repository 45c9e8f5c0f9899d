package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the voice assistant.
type Config struct {
	Audio        AudioConfig        `yaml:"audio"`
	Wake         WakeConfig         `yaml:"wake"`
	Whisper      WhisperConfig      `yaml:"whisper"`
	Backend      BackendConfig      `yaml:"backend"`
	Conversation ConversationConfig `yaml:"conversation"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
}

// AudioConfig selects and shapes the capture source.
type AudioConfig struct {
	// Source is "microphone" or "file".
	Source     string `yaml:"source"`
	SampleRate int    `yaml:"sample_rate"`
	FrameSize  int    `yaml:"frame_size"`
	// FileDir is the directory of WAV files replayed by the file source.
	FileDir string `yaml:"file_dir"`
	// DumpDir, when set, receives a WAV copy of every dispatched utterance.
	DumpDir string `yaml:"dump_dir"`
}

// WakeConfig configures the wake-word engine.
type WakeConfig struct {
	AccessKey   string  `yaml:"access_key"`
	Keyword     string  `yaml:"keyword"`
	Sensitivity float32 `yaml:"sensitivity"`
}

// WhisperConfig configures local transcription. An empty ModelPath disables
// transcription and a no-op transcriber is used instead.
type WhisperConfig struct {
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

// BackendConfig points at the assistant backend service.
type BackendConfig struct {
	URL       string `yaml:"url"`
	SessionID string `yaml:"session_id"`
}

// ConversationConfig holds the endpointing and turn-taking tunables.
// Durations are expressed in seconds.
type ConversationConfig struct {
	AssistantName         string  `yaml:"assistant_name"`
	AckText               string  `yaml:"ack_text"`
	AckWindowSeconds      float64 `yaml:"ack_window_seconds"`
	BaseSilenceThreshold  float64 `yaml:"base_silence_threshold"`
	DynamicThresholdRatio float64 `yaml:"dynamic_threshold_ratio"`
	SilenceStopSeconds    float64 `yaml:"silence_stop_seconds"`
	MaxRecordingSeconds   float64 `yaml:"max_recording_seconds"`
	MinRecordingSeconds   float64 `yaml:"min_recording_seconds"`
	QuietFloor            float64 `yaml:"quiet_floor"`
	FollowUpSeconds       float64 `yaml:"follow_up_seconds"`
	QueueCapacity         int     `yaml:"queue_capacity"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration file at path, expands ${VAR} references from
// the environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FrameSize == 0 {
		c.Audio.FrameSize = 512
	}
	if c.Wake.Keyword == "" {
		c.Wake.Keyword = "jarvis"
	}
	if c.Wake.Sensitivity == 0 {
		c.Wake.Sensitivity = 0.5
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Backend.SessionID == "" {
		c.Backend.SessionID = "jarvis_main"
	}
	if c.Conversation.AssistantName == "" {
		c.Conversation.AssistantName = "jarvis"
	}
	if c.Conversation.AckText == "" {
		c.Conversation.AckText = "Yes sir?"
	}
	if c.Conversation.AckWindowSeconds == 0 {
		c.Conversation.AckWindowSeconds = 1.2
	}
	if c.Conversation.BaseSilenceThreshold == 0 {
		c.Conversation.BaseSilenceThreshold = 0.003
	}
	if c.Conversation.DynamicThresholdRatio == 0 {
		c.Conversation.DynamicThresholdRatio = 0.1
	}
	if c.Conversation.SilenceStopSeconds == 0 {
		c.Conversation.SilenceStopSeconds = 3.0
	}
	if c.Conversation.MaxRecordingSeconds == 0 {
		c.Conversation.MaxRecordingSeconds = 15.0
	}
	if c.Conversation.MinRecordingSeconds == 0 {
		c.Conversation.MinRecordingSeconds = 1.0
	}
	if c.Conversation.QuietFloor == 0 {
		c.Conversation.QuietFloor = 0.001
	}
	if c.Conversation.FollowUpSeconds == 0 {
		c.Conversation.FollowUpSeconds = 10.0
	}
	if c.Conversation.QueueCapacity == 0 {
		c.Conversation.QueueCapacity = 4
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9091"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks required fields and rejects unusable tunables.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	switch c.Audio.Source {
	case "microphone", "file":
	default:
		return fmt.Errorf("audio.source must be microphone or file, got %q", c.Audio.Source)
	}
	if c.Audio.Source == "file" && c.Audio.FileDir == "" {
		return fmt.Errorf("audio.file_dir is required when audio.source is file")
	}
	if c.Wake.Sensitivity < 0 || c.Wake.Sensitivity > 1 {
		return fmt.Errorf("wake.sensitivity must be between 0 and 1, got %v", c.Wake.Sensitivity)
	}
	if c.Conversation.MinRecordingSeconds >= c.Conversation.MaxRecordingSeconds {
		return fmt.Errorf("conversation.min_recording_seconds must be below max_recording_seconds")
	}
	if c.Conversation.QueueCapacity < 1 {
		return fmt.Errorf("conversation.queue_capacity must be at least 1")
	}
	return nil
}

// Seconds converts a float-seconds tunable to a duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
