package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"steve/internal/audio"
	"steve/internal/audit"
	"steve/internal/bus"
	"steve/internal/config"
	"steve/internal/crypto"
	"steve/internal/history"
	"steve/internal/ipc"
	"steve/internal/llm"
	"steve/internal/notify"
	"steve/internal/proxy"
	"steve/internal/resource"
	"steve/internal/sanitize"
	"steve/internal/session"
	"steve/internal/tts"
	"steve/internal/usage"
	"steve/internal/wake"
	"steve/pkg/audioconv"
	"steve/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy address (empty disables)")
	modelPath := cli.StringP("model", "m", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	chime := cli.StringP("chime", "c", "", "Startup chime mp3 (empty uses the built-in melody)")
	transcribeFile := cli.StringP("transcribe", "t", "", "Transcribe an audio file and exit")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	cfg := config.FromEnv()

	whisper, err := stt.NewTranscriber(*modelPath, stt.Options{Language: "en"})
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	if *transcribeFile != "" {
		transcribeAndExit(whisper, *transcribeFile, cfg)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	log.Debug("Loaded API Key")

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if *proxyAddr != "" {
		httpClient, err := proxy.NewHTTPClient(*proxyAddr, 2*time.Minute)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
		log.Debug("Loaded proxy")
	}
	api := openai.NewClient(opts...)

	auditor := audit.New(log.Default())

	spill := audio.NewTempStore(auditor)
	rec := audio.NewRecorder(audio.Config{
		SampleRate:        cfg.SampleRate,
		SilenceThreshold:  cfg.SilenceThreshold,
		SilenceDuration:   cfg.SilenceDuration,
		MinSpeechDuration: cfg.MinSpeechDuration,
		MaxRecordDuration: cfg.MaxRecordDuration,
	}, spill)
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	if cfg.CalibrateFor > 0 {
		log.Info("Calibrating ambient noise, stay quiet", "for", cfg.CalibrateFor)
		if err := rec.Calibrate(cfg.CalibrateFor); err != nil {
			log.Warn("Calibration failed, keeping default threshold", "err", err)
		}
	}

	cipher, err := crypto.NewSessionCipher()
	if err != nil {
		log.Error("Failed to create session cipher", "err", err)
		os.Exit(1)
	}

	ledger := usage.NewLedger(usage.Limits{
		MaxDailyCalls:   cfg.MaxDailyAPICalls,
		MaxHourlyCalls:  cfg.MaxHourlyAPICalls,
		MaxSessionCost:  cfg.MaxSessionCost,
		CostInputPer1M:  cfg.CostInputPer1M,
		CostOutputPer1M: cfg.CostOutputPer1M,
	}, auditor)

	store := history.NewStore(cipher, auditor, history.Options{
		Enabled:   cfg.EnableHistory,
		MaxTokens: cfg.MaxHistoryTokens,
		MaxTurns:  cfg.MaxConversationTurns,
	})

	chimes := notify.New(cfg.EnableChimes, *chime)
	if err := chimes.Init(); err != nil {
		log.Warn("Chimes unavailable", "err", err)
	}
	chimes.Startup()

	var sink session.EventSink
	if wsURL := os.Getenv("BUS_URL"); wsURL != "" {
		b, err := bus.Dial(wsURL)
		if err != nil {
			log.Warn("Bus unreachable, events stay local", "url", wsURL, "err", err)
		} else {
			defer b.Close()
			sink = b
		}
	}

	sess := session.New(session.Config{
		WakeWindow:        cfg.WakeWindow,
		InlineCommandMin:  3,
		CostWarnThreshold: cfg.CostWarnThreshold,
	}, session.Deps{
		Device:    rec,
		STT:       whisper,
		LLM:       llm.NewClient(api, cfg.Model),
		Speaker:   tts.NewSpeaker(cfg.SpeechRate),
		Notify:    chimes,
		Gate:      resource.NewMonitor(cfg.MinDiskSpaceMB, cfg.MaxMemoryPercent, auditor),
		Sink:      sink,
		Detector:  wake.NewDetector(cfg.WakePhrase, cfg.GoodbyePhrase),
		Sanitizer: sanitize.New(auditor),
		History:   store,
		Ledger:    ledger,
		Audit:     auditor,
		Log:       log.Default(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ipc.StartServer(func(msg ipc.ControlMessage) ipc.Response {
		switch msg.Cmd {
		case ipc.CmdStatus:
			snap := ledger.Snapshot()
			return ipc.Response{
				OK:          true,
				State:       string(sess.State()),
				DailyCalls:  snap.DailyCalls,
				HourlyCalls: snap.HourlyCalls,
				SessionCost: snap.SessionCost,
			}
		case ipc.CmdStop:
			stop()
			return ipc.Response{OK: true, Detail: "stopping"}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return ipc.Response{OK: false, Detail: "unknown command: " + msg.Cmd}
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "wake_phrase", cfg.WakePhrase, "model", cfg.Model)

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("Session runner failed", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

// transcribeAndExit is the offline diagnostic: decode any supported audio
// file, run it through whisper, print the text.
func transcribeAndExit(tr *stt.Transcriber, path string, cfg config.Config) {
	maxSamples := int(cfg.MaxRecordDuration.Seconds()) * audioconv.TargetRate * 10
	pcm, err := audioconv.DecodeFile(path, maxSamples)
	if err != nil {
		log.Error("Failed to decode audio file", "path", path, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	text, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Failed to transcribe", "err", err)
		os.Exit(1)
	}
	fmt.Println(text)
	os.Exit(0)
}
