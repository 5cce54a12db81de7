package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/internal/wsengine"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio/wav"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/version"
	whisper "github.com/AlexandruBudaca/cognitive-services-speech-sdk/plugins/openai"
)

var rootCmd = &cobra.Command{
	Use:          "speechcli",
	Short:        "Client for the streaming speech-recognition service",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize speech from a WAV file",
	RunE:  runRecognize,
}

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Generate a sine-wave WAV file for testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		freq, _ := cmd.Flags().GetFloat64("freq")
		durationMs, _ := cmd.Flags().GetInt("duration")

		w, err := wav.NewWriter(out, audio.DefaultFormat)
		if err != nil {
			return err
		}
		if err := w.WriteSineWave(freq, durationMs); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %dms %gHz tone to %s\n", durationMs, freq, out)
		return nil
	},
}

func runRecognize(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	language, _ := cmd.Flags().GetString("language")
	key, _ := cmd.Flags().GetString("key")
	region, _ := cmd.Flags().GetString("region")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	token, _ := cmd.Flags().GetString("token")
	format, _ := cmd.Flags().GetString("format")
	continuous, _ := cmd.Flags().GetBool("continuous")
	engineName, _ := cmd.Flags().GetString("engine")
	openaiKey, _ := cmd.Flags().GetString("openai-key")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger := setupLogger(verbose)

	cfg, err := buildConfig(language, key, region, endpoint, token)
	if err != nil {
		return err
	}
	if format == "detailed" {
		cfg.SetProperty(speech.PropertyOutputFormat, speech.OutputFormatDetailed.String())
	}

	source, err := wav.NewFileSource(file)
	if err != nil {
		return err
	}
	defer source.Stop()

	var engine speech.Engine
	switch engineName {
	case "ws":
		engine = wsengine.New(logger)
	case "whisper":
		if openaiKey == "" {
			openaiKey = os.Getenv("OPENAI_API_KEY")
		}
		if openaiKey == "" {
			return fmt.Errorf("--openai-key or OPENAI_API_KEY is required for the whisper engine")
		}
		engine = whisper.NewEngine(openaiKey, logger)
	default:
		return fmt.Errorf("unknown engine %q (want ws or whisper)", engineName)
	}

	recognizer, err := speech.NewRecognizer(cfg, source, engine, nil, logger)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	done := make(chan struct{})
	recognizer.Recognizing(func(_ *speech.Recognizer, e speech.RecognitionEventArgs) {
		fmt.Printf("recognizing: %s\n", e.Result.Text)
	})
	recognizer.Recognized(func(_ *speech.Recognizer, e speech.RecognitionEventArgs) {
		if e.Result.Reason == speech.ResultReasonNoMatch {
			fmt.Println("recognized: (no match)")
			return
		}
		fmt.Printf("recognized: %s\n", e.Result.Text)
	})
	recognizer.Canceled(func(_ *speech.Recognizer, e speech.CancellationEventArgs) {
		fmt.Printf("canceled: %s (%s)\n", e.Details.Reason, e.Details.ErrorDetails)
		select {
		case <-done:
		default:
			close(done)
		}
	})

	if !continuous {
		err := recognizer.RecognizeOnce(func(result *speech.RecognitionResult) {
			select {
			case <-done:
			default:
				close(done)
			}
		}, func(err error) {
			logger.Error("recognition failed", slog.String("error", err.Error()))
		})
		if err != nil {
			return err
		}
		<-done
		return nil
	}

	if err := recognizer.StartContinuousRecognition(nil, nil); err != nil {
		return err
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
	}
	return recognizer.StopContinuousRecognition(func() {
		logger.Info("recognition stopped")
	}, nil)
}

func buildConfig(language, key, region, endpoint, token string) (*speech.Config, error) {
	var cfg *speech.Config
	var err error
	switch {
	case endpoint != "":
		cfg, err = speech.NewConfigFromEndpoint(endpoint, key, language)
	case region != "":
		cfg, err = speech.NewConfigFromSubscription(key, region, language)
	default:
		cfg, err = speech.NewConfig(language)
	}
	if err != nil {
		return nil, err
	}
	if token != "" {
		cfg.SetProperty(speech.PropertyAuthToken, token)
	}
	return cfg, nil
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	recognizeCmd.Flags().String("file", "", "WAV file to recognize (required)")
	recognizeCmd.Flags().String("language", "en-US", "recognition language")
	recognizeCmd.Flags().String("key", "", "subscription key")
	recognizeCmd.Flags().String("region", "", "service region")
	recognizeCmd.Flags().String("endpoint", "", "custom service endpoint")
	recognizeCmd.Flags().String("token", "", "authorization token")
	recognizeCmd.Flags().String("format", "simple", "output format: simple or detailed")
	recognizeCmd.Flags().Bool("continuous", false, "run continuous recognition until interrupted")
	recognizeCmd.Flags().String("engine", "ws", "engine: ws or whisper")
	recognizeCmd.Flags().String("openai-key", "", "OpenAI API key for the whisper engine")
	recognizeCmd.Flags().Bool("verbose", false, "enable debug logging")
	recognizeCmd.MarkFlagRequired("file")

	toneCmd.Flags().String("out", "tone.wav", "output file")
	toneCmd.Flags().Float64("freq", 440, "tone frequency in Hz")
	toneCmd.Flags().Int("duration", 2000, "tone duration in milliseconds")

	rootCmd.AddCommand(versionCmd, recognizeCmd, toneCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
