// Command ttsdemo synthesizes a sentence with the configured TTS provider, saves it as
// WAV and plays it when a player is installed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/adapters/tts"
	"github.com/satriahrh/voxcal/internal/app"
	"github.com/satriahrh/voxcal/internal/audio"
	"github.com/satriahrh/voxcal/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		text       string
		outputFile string
		autoplay   bool
		showVoices bool
	)

	cmd := &cobra.Command{
		Use:          "ttsdemo",
		Short:        "Synthesize a sentence with the configured TTS provider",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := app.NewLogger(cfg.LogLevel)
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			providers := &app.Providers{}
			defer providers.Close()

			synth, err := app.BuildTextToSpeech(ctx, cfg.TTS, logger, providers)
			if err != nil {
				return err
			}

			logger.Info("Converting text to speech", zap.String("text", text), zap.String("provider", cfg.TTS.Provider))

			data, err := synth.Synthesize(ctx, text)
			if err != nil {
				return err
			}
			if !audio.IsWAV(data) {
				if data, err = audio.EncodeWAV(data, cfg.TTS.SampleRate); err != nil {
					return err
				}
			}

			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			fmt.Printf("Audio saved to %s (%d bytes)\n", outputFile, len(data))

			if autoplay {
				if err := playAudioFile(outputFile, logger); err != nil {
					logger.Warn("Failed to play audio automatically", zap.Error(err))
					printPlaybackInstructions(outputFile)
				}
			}

			if showVoices {
				eleven, ok := synth.(*tts.ElevenLabsTTS)
				if !ok {
					return fmt.Errorf("--voices needs TTS_PROVIDER=elevenlabs")
				}
				voices, err := eleven.GetAvailableVoices(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("\nAvailable voices (%d):\n", len(voices))
				for i, voice := range voices {
					if i >= 10 {
						fmt.Printf("... and %d more voices\n", len(voices)-10)
						break
					}
					fmt.Printf("  - %s (ID: %s)\n", voice["name"], voice["voice_id"])
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&text, "text", "t", "You have a meeting with Sam tomorrow at three in the afternoon.", "text to speak")
	flags.StringVarP(&outputFile, "out", "o", "ttsdemo_output.wav", "output WAV file")
	flags.BoolVar(&autoplay, "play", os.Getenv("NO_AUTOPLAY") != "true", "play the file after saving")
	flags.BoolVar(&showVoices, "voices", false, "list ElevenLabs voices")
	return cmd
}

// audioPlayer represents an audio player command and its arguments
type audioPlayer struct {
	command string
	args    []string
}

// playAudioFile plays a WAV file with the first available player
func playAudioFile(filename string, logger *zap.Logger) error {
	players := []audioPlayer{
		{"play", nil},
		{"ffplay", []string{"-nodisp", "-autoexit"}},
		{"aplay", nil},
		{"afplay", nil},
	}

	for _, player := range players {
		if _, err := exec.LookPath(player.command); err != nil {
			continue
		}
		args := append(append([]string{}, player.args...), filename)
		logger.Info("Attempting to play audio", zap.String("player", player.command))
		err := exec.Command(player.command, args...).Run()
		if err == nil {
			return nil
		}
		logger.Debug("Player failed", zap.String("player", player.command), zap.Error(err))
	}

	return fmt.Errorf("no suitable audio player found")
}

func printPlaybackInstructions(filename string) {
	fmt.Printf("  play %s\n", filename)
	fmt.Printf("  ffplay -nodisp -autoexit %s\n", filename)
	if runtime.GOOS == "linux" {
		fmt.Printf("  aplay %s\n", filename)
	}
}
