package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"jarvis-voice/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: http://localhost:8000
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audio.Source != "microphone" {
		t.Errorf("audio source = %q, want microphone", cfg.Audio.Source)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FrameSize != 512 {
		t.Errorf("frame size = %d, want 512", cfg.Audio.FrameSize)
	}
	if cfg.Wake.Keyword != "jarvis" {
		t.Errorf("keyword = %q, want jarvis", cfg.Wake.Keyword)
	}
	if cfg.Backend.SessionID != "jarvis_main" {
		t.Errorf("session = %q, want jarvis_main", cfg.Backend.SessionID)
	}
	if cfg.Conversation.AckText != "Yes sir?" {
		t.Errorf("ack text = %q, want %q", cfg.Conversation.AckText, "Yes sir?")
	}
	if cfg.Conversation.SilenceStopSeconds != 3.0 {
		t.Errorf("silence stop = %v, want 3.0", cfg.Conversation.SilenceStopSeconds)
	}
	if cfg.Conversation.MaxRecordingSeconds != 15.0 {
		t.Errorf("max recording = %v, want 15.0", cfg.Conversation.MaxRecordingSeconds)
	}
	if cfg.Conversation.FollowUpSeconds != 10.0 {
		t.Errorf("follow-up = %v, want 10.0", cfg.Conversation.FollowUpSeconds)
	}
	if cfg.Conversation.QueueCapacity != 4 {
		t.Errorf("queue capacity = %d, want 4", cfg.Conversation.QueueCapacity)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "http://backend:9000")
	t.Setenv("TEST_ACCESS_KEY", "pk-secret")

	path := writeConfig(t, `
backend:
  url: ${TEST_BACKEND_URL}
wake:
  access_key: ${TEST_ACCESS_KEY}
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://backend:9000" {
		t.Errorf("backend url = %q, want expanded env value", cfg.Backend.URL)
	}
	if cfg.Wake.AccessKey != "pk-secret" {
		t.Errorf("access key = %q, want expanded env value", cfg.Wake.AccessKey)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing backend url",
			`
audio:
  source: microphone
`,
		},
		{
			"unknown audio source",
			`
backend:
  url: http://localhost:8000
audio:
  source: satellite
`,
		},
		{
			"file source without dir",
			`
backend:
  url: http://localhost:8000
audio:
  source: file
`,
		},
		{
			"sensitivity out of range",
			`
backend:
  url: http://localhost:8000
wake:
  sensitivity: 1.5
`,
		},
		{
			"min recording above max",
			`
backend:
  url: http://localhost:8000
conversation:
  min_recording_seconds: 20
  max_recording_seconds: 15
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := config.Load(path); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestSeconds(t *testing.T) {
	if got := config.Seconds(1.2); got != 1200*time.Millisecond {
		t.Errorf("Seconds(1.2) = %v, want 1.2s", got)
	}
	if got := config.Seconds(0.05); got != 50*time.Millisecond {
		t.Errorf("Seconds(0.05) = %v, want 50ms", got)
	}
}
