package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"

	"jarvis-voice/config"
	"jarvis-voice/internal/application"
	"jarvis-voice/internal/infra/audio"
	"jarvis-voice/internal/infra/backend"
	"jarvis-voice/internal/infra/porcupine"
	"jarvis-voice/internal/infra/whisper"
	"jarvis-voice/internal/observe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Error("assistant stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := observe.NewNoopMetrics()
	if cfg.Metrics.Enabled {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
		if err != nil {
			return fmt.Errorf("initializing metrics provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown", "error", err)
			}
		}()

		metrics, err = observe.NewMetrics(otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("creating metrics: %w", err)
		}

		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	detector, err := porcupine.New(cfg.Wake.AccessKey, cfg.Wake.Keyword, cfg.Wake.Sensitivity)
	if err != nil {
		return fmt.Errorf("initializing wake-word engine: %w", err)
	}
	defer detector.Close()

	var asr application.Transcriber = &application.NoopTranscriber{}
	if cfg.Whisper.ModelPath != "" {
		t, err := whisper.New(cfg.Whisper.ModelPath, cfg.Whisper.Language)
		if err != nil {
			return fmt.Errorf("loading whisper model: %w", err)
		}
		defer t.Close()
		asr = t
	} else {
		logger.Warn("no whisper model configured, transcription disabled")
	}

	client := backend.NewClient(cfg.Backend.URL)

	capture, err := buildCapture(cfg.Audio, logger)
	if err != nil {
		return err
	}

	var sink application.UtteranceSink
	if cfg.Audio.DumpDir != "" {
		dumper, err := audio.NewDumper(afero.NewOsFs(), cfg.Audio.DumpDir)
		if err != nil {
			return fmt.Errorf("initializing utterance dumper: %w", err)
		}
		sink = dumper
	}

	gate := application.NewWakeGate(detector, logger)
	filter := application.NewSpeechFilter(cfg.Conversation.AssistantName)
	endpointer := application.NewEndpointer(application.EndpointConfig{
		SampleRate:            cfg.Audio.SampleRate,
		BaseSilenceThreshold:  cfg.Conversation.BaseSilenceThreshold,
		DynamicThresholdRatio: cfg.Conversation.DynamicThresholdRatio,
		SilenceStop:           config.Seconds(cfg.Conversation.SilenceStopSeconds),
		MaxRecording:          config.Seconds(cfg.Conversation.MaxRecordingSeconds),
		MinRecording:          config.Seconds(cfg.Conversation.MinRecordingSeconds),
		QuietFloor:            cfg.Conversation.QuietFloor,
	}, application.NewEnergyTracker())

	queue := application.NewDispatchQueue(cfg.Conversation.QueueCapacity)

	ctrlCfg := application.DefaultControllerConfig(cfg.Audio.SampleRate)
	ctrlCfg.AckText = cfg.Conversation.AckText
	ctrlCfg.AckWindow = config.Seconds(cfg.Conversation.AckWindowSeconds)
	ctrlCfg.FollowUpTimeout = config.Seconds(cfg.Conversation.FollowUpSeconds)
	ctrl := application.NewConversationController(ctrlCfg, gate, endpointer, queue, client, logger, metrics)

	workerCfg := application.DefaultWorkerConfig(cfg.Audio.SampleRate)
	workerCfg.SessionID = cfg.Backend.SessionID
	worker := application.NewWorker(workerCfg, queue, asr, client, filter, ctrl, sink, logger, metrics)

	assistant := application.NewAssistant(capture, ctrl, worker, client, logger)
	return assistant.Run(ctx)
}

func buildCapture(cfg config.AudioConfig, logger *slog.Logger) (application.CaptureSource, error) {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(afero.NewOsFs(), cfg.FileDir, cfg.FrameSize, logger), nil
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.FrameSize, logger), nil
	default:
		return nil, fmt.Errorf("unknown audio source %q", cfg.Source)
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
