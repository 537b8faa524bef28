// Command voiceclient streams an audio file (or a typed transcript) to the voice
// server, prints the events it receives and saves the spoken reply.
//
// Usage:
//
//	voiceclient --file question.wav
//	voiceclient --text "what do I have tomorrow" --thread 5f0c...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/internal/auth"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		opts    turnOptions
		file    string
		secret  string
		out     string
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "voiceclient",
		Short: "Run one voice turn against the calendar assistant",
		Long: `Run one voice turn against the calendar assistant.

Audio is read from a WAV file (16-bit PCM) or raw LINEAR16 file and streamed in
chunks between start_listening and stop_listening. With --text the audio step is
skipped and the text is sent as a final transcript instead, which is what the
server expects when STT_PROVIDER=client.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && opts.Text == "" {
				return fmt.Errorf("one of --file or --text is required")
			}

			logger := zap.NewNop()
			if verbose {
				logger, _ = zap.NewDevelopment()
			}
			defer logger.Sync()

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read audio file: %w", err)
				}
				opts.Audio = data
			}

			if opts.Token == "" && secret != "" {
				token, err := auth.NewTokenIssuer(secret, 10*time.Minute).GenerateClientToken("voiceclient")
				if err != nil {
					return fmt.Errorf("failed to mint token: %w", err)
				}
				opts.Token = token
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := runTurn(ctx, opts, logger)
			if err != nil {
				return err
			}

			fmt.Printf("chatThreadId: %s\n", result.ThreadID)
			fmt.Printf("you said:     %s\n", result.Transcript)
			fmt.Printf("assistant:    %s\n", result.Reply)

			if len(result.Audio) > 0 && out != "" {
				wav, err := result.WAV(opts.ReplySampleRate)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, wav, 0o644); err != nil {
					return fmt.Errorf("failed to save reply audio: %w", err)
				}
				fmt.Printf("reply audio:  %s (%d chunks, %d bytes)\n", out, result.AudioChunks, len(wav))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "url", "ws://localhost:8000/ws/voice", "websocket endpoint")
	flags.StringVarP(&file, "file", "f", "", "WAV or raw LINEAR16 audio to send")
	flags.StringVarP(&opts.Text, "text", "t", "", "send a typed transcript instead of audio")
	flags.StringVar(&opts.ThreadID, "thread", "", "continue an existing chatThreadId")
	flags.StringVar(&opts.Token, "token", "", "bearer token for servers with JWT_SECRET set")
	flags.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "mint a token with this secret")
	flags.IntVar(&opts.ChunkSize, "chunk-size", 3200, "audio bytes per binary frame")
	flags.DurationVar(&opts.Interval, "interval", 100*time.Millisecond, "delay between audio frames")
	flags.DurationVar(&opts.Idle, "idle", 3*time.Second, "how long to wait for more audio after the reply")
	flags.IntVar(&opts.ReplySampleRate, "reply-rate", 16000, "sample rate of raw PCM replies")
	flags.StringVarP(&out, "out", "o", "reply.wav", "file for the reply audio (empty to skip)")
	flags.DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for the turn")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every frame")

	return cmd
}
