// Command textchat talks to the calendar agent from the terminal, one line per turn,
// using the same configuration and thread storage as the voice server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/satriahrh/voxcal/internal/app"
	"github.com/satriahrh/voxcal/internal/config"
	"github.com/satriahrh/voxcal/usecase"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:          "textchat",
		Short:        "Chat with the calendar assistant without audio",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := app.NewLogger(cfg.LogLevel)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			providers, err := app.BuildReasoning(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer providers.Close()

			if threadID == "" {
				threadID = uuid.NewString()
			}
			fmt.Printf("chatThreadId: %s (Ctrl+D to quit)\n", threadID)

			chat := usecase.NewChatService(usecase.NewConversationService(providers.Engine, nil, nil, logger), logger)
			return repl(ctx, chat, threadID)
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "continue an existing chatThreadId")
	return cmd
}

func repl(ctx context.Context, chat *usecase.ChatService, threadID string) error {
	input := make(chan string)
	output := make(chan string)

	go func() {
		defer close(input)
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			select {
			case input <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- chat.Execute(ctx, threadID, input, output)
	}()

	for {
		select {
		case reply := <-output:
			fmt.Printf("%s\n> ", reply)
		case err := <-done:
			fmt.Println()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
