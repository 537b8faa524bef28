package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/audio"
	"github.com/satriahrh/voxcal/internal/metrics"
)

// SessionState is the phase of the current turn
type SessionState int

const (
	StateIdle SessionState = iota
	StateListening
	StateFinalizing
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// SessionConfig holds per-connection settings
type SessionConfig struct {
	// Audio is the recognition config; a WAV header on the first chunk overrides SampleRate
	Audio       repositories.AudioConfig
	PullTimeout time.Duration
	Metrics     *metrics.Metrics
	// NewThreadID allocates a session token when the client never sent existing_chat
	NewThreadID func() string
}

// SessionCoordinator drives the turn state machine of one voice connection.
// Handle* methods must be called from a single goroutine, one message at a time.
type SessionCoordinator struct {
	sender       domain.EventSender
	conversation *ConversationService
	speechToText repositories.SpeechToText
	config       SessionConfig
	logger       *zap.Logger

	state     SessionState
	threadID  string
	buffer    *audio.Buffer
	assembler *UtteranceAssembler

	// worker is non-nil while the turn's transcription goroutine runs
	worker    chan error
	turnStart time.Time
}

// NewSessionCoordinator creates a coordinator. stt may be nil when clients send
// transcript messages instead of audio.
func NewSessionCoordinator(
	sender domain.EventSender,
	conversation *ConversationService,
	stt repositories.SpeechToText,
	config SessionConfig,
	logger *zap.Logger,
) *SessionCoordinator {
	if config.NewThreadID == nil {
		config.NewThreadID = uuid.NewString
	}

	return &SessionCoordinator{
		sender:       sender,
		conversation: conversation,
		speechToText: stt,
		config:       config,
		logger:       logger,
		state:        StateIdle,
		buffer:       audio.NewBuffer(config.PullTimeout),
		assembler:    NewUtteranceAssembler(),
	}
}

// State returns the current turn phase
func (c *SessionCoordinator) State() SessionState {
	return c.state
}

// ThreadID returns the session token, empty until one is received or allocated
func (c *SessionCoordinator) ThreadID() string {
	return c.threadID
}

// HandleControl processes one JSON control message
func (c *SessionCoordinator) HandleControl(ctx context.Context, msg domain.ControlMessage) error {
	switch msg.EventType {
	case domain.EventStartListening:
		if c.state != StateIdle {
			c.logger.Debug("Ignoring start_listening", zap.Stringer("state", c.state))
			return nil
		}
		if err := c.sender.Send(domain.NewListeningEvent()); err != nil {
			return err
		}
		c.beginTurn()
		return nil

	case domain.EventStopListening:
		if c.state != StateListening {
			c.logger.Debug("Ignoring stop_listening", zap.Stringer("state", c.state))
			return nil
		}
		return c.finalize(ctx)

	case domain.EventExistingChat:
		if msg.ChatThreadID == "" {
			c.logger.Debug("Ignoring existing_chat without chatThreadId")
			return nil
		}
		c.threadID = msg.ChatThreadID
		c.logger.Info("Chat thread resumed", zap.String("chatThreadId", c.threadID))
		return c.sender.Send(domain.NewChatThreadAckEvent(c.threadID))

	case domain.EventTranscript:
		if c.state == StateIdle {
			c.beginTurn()
		}
		c.assembler.Add(msg.Text, msg.IsFinal)
		return nil

	default:
		c.logger.Warn("Unknown event type", zap.String("eventType", string(msg.EventType)))
		return nil
	}
}

// HandleAudio processes one binary audio frame
func (c *SessionCoordinator) HandleAudio(ctx context.Context, data []byte) error {
	if c.state == StateIdle {
		c.beginTurn()
	}

	pcm, format, err := audio.ToLinear16(data)
	if err != nil {
		return fmt.Errorf("failed to convert audio chunk: %w", err)
	}
	if len(pcm) == 0 {
		return nil
	}

	if c.speechToText == nil {
		c.logger.Debug("No transcriber configured, dropping audio", zap.Int("bytes", len(pcm)))
		return nil
	}

	if c.worker == nil {
		c.startTranscription(ctx, format)
	}

	c.config.Metrics.AddAudioBytes(len(pcm))
	c.buffer.Push(pcm)
	return nil
}

// Close ends any running transcription. Call once the connection is gone.
func (c *SessionCoordinator) Close() {
	c.buffer.Stop()
}

func (c *SessionCoordinator) beginTurn() {
	c.assembler.Reset()
	c.buffer.Start()
	c.state = StateListening
	c.turnStart = time.Now()
}

func (c *SessionCoordinator) startTranscription(ctx context.Context, format audio.Format) {
	cfg := c.config.Audio
	if format.SampleRate > 0 {
		cfg.SampleRate = format.SampleRate
	}

	done := make(chan error, 1)
	c.worker = done
	stream := c.buffer.Stream(ctx)

	c.logger.Debug("Starting transcription",
		zap.Int("sampleRate", cfg.SampleRate),
		zap.String("language", cfg.Language))

	go func() {
		done <- c.speechToText.Transcribe(ctx, cfg, stream, func(r repositories.TranscriptResult) {
			text := r.Text
			c.assembler.Add(&text, r.IsFinal)
		})
	}()
}

// awaitTranscription waits for the worker to drain the buffer up to the sentinel
func (c *SessionCoordinator) awaitTranscription(ctx context.Context) error {
	if c.worker == nil {
		return nil
	}
	done := c.worker
	c.worker = nil

	start := time.Now()
	select {
	case err := <-done:
		c.config.Metrics.ObserveStage(metrics.StageTranscription, time.Since(start))
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SessionCoordinator) finalize(ctx context.Context) error {
	c.state = StateFinalizing
	outcome := metrics.OutcomeError
	defer func() {
		c.assembler.Reset()
		c.state = StateIdle
		c.config.Metrics.ObserveTurn(outcome, time.Since(c.turnStart))
	}()

	c.buffer.Stop()
	if err := c.awaitTranscription(ctx); err != nil {
		return err
	}

	transcript := c.assembler.Finalize()
	if transcript == "" {
		outcome = metrics.OutcomeEmpty
		c.logger.Debug("Empty transcript, nothing to answer")
		return nil
	}

	if err := c.sender.Send(domain.NewFinalTranscriptEvent(transcript)); err != nil {
		return err
	}

	if c.threadID == "" {
		c.threadID = c.config.NewThreadID()
		c.logger.Info("Chat thread created", zap.String("chatThreadId", c.threadID))
	}
	threadID := c.threadID

	reply, err := c.conversation.Reply(ctx, transcript, threadID)
	if err != nil {
		return err
	}

	if err := c.sender.Send(domain.NewAgentResponseEvent(reply, threadID)); err != nil {
		return err
	}

	streamed, err := c.conversation.Speak(ctx, reply, func(chunk []byte) error {
		return c.sender.Send(domain.NewAudioResponseEvent(chunk, threadID))
	})
	if err != nil {
		return err
	}

	if streamed {
		if err := c.sender.Send(domain.NewFinalAudioResponseEvent(threadID)); err != nil {
			return err
		}
	}

	outcome = metrics.OutcomeOK
	return nil
}
