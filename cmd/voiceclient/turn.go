package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/internal/audio"
	wsproto "github.com/satriahrh/voxcal/internal/websocket"
)

var errServerError = errors.New("server reported an error")

type turnOptions struct {
	URL             string
	Token           string
	ThreadID        string
	Text            string
	Audio           []byte
	ChunkSize       int
	Interval        time.Duration
	Idle            time.Duration
	ReplySampleRate int
}

type turnResult struct {
	ThreadID    string
	Transcript  string
	Reply       string
	Audio       []byte
	AudioChunks int
	Events      []domain.EventType
}

// WAV returns the reply audio as a WAV file, wrapping raw PCM when needed
func (r *turnResult) WAV(sampleRate int) ([]byte, error) {
	if audio.IsWAV(r.Audio) {
		return r.Audio, nil
	}
	return audio.EncodeWAV(r.Audio, sampleRate)
}

// runTurn connects, performs one listening turn and collects the server's answer
func runTurn(ctx context.Context, opts turnOptions, logger *zap.Logger) (*turnResult, error) {
	header := http.Header{}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	defer conn.Close()

	result := &turnResult{}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks both sides when the turn is abandoned
			conn.Close()
		case <-finished:
		}
	}()

	// Either side failing closes the connection so the other returns too
	var g errgroup.Group
	g.Go(func() error {
		err := readEvents(conn, opts, result, logger)
		if err != nil {
			conn.Close()
		}
		return err
	})
	g.Go(func() error {
		err := sendTurn(ctx, conn, opts, logger)
		if err != nil {
			conn.Close()
		}
		return err
	})

	err = g.Wait()
	close(finished)
	if err != nil {
		return result, err
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return result, nil
}

func sendTurn(ctx context.Context, conn *websocket.Conn, opts turnOptions, logger *zap.Logger) error {
	if opts.ThreadID != "" {
		if err := sendControl(conn, domain.ControlMessage{EventType: domain.EventExistingChat, ChatThreadID: opts.ThreadID}); err != nil {
			return err
		}
	}

	if err := sendControl(conn, domain.ControlMessage{EventType: domain.EventStartListening}); err != nil {
		return err
	}

	if opts.Text != "" {
		text := opts.Text
		if err := sendControl(conn, domain.ControlMessage{EventType: domain.EventTranscript, Text: &text, IsFinal: true}); err != nil {
			return err
		}
	} else if err := sendAudio(ctx, conn, opts, logger); err != nil {
		return err
	}

	return sendControl(conn, domain.ControlMessage{EventType: domain.EventStopListening})
}

// sendAudio streams the file as LINEAR16 frames. A WAV input is unwrapped and its
// first frame re-wrapped so the server learns the sample rate.
func sendAudio(ctx context.Context, conn *websocket.Conn, opts turnOptions, logger *zap.Logger) error {
	pcm, format, err := audio.ToLinear16(opts.Audio)
	if err != nil {
		return fmt.Errorf("unsupported audio file: %w", err)
	}

	chunkSize := max(opts.ChunkSize, 2)
	for offset, n := 0, 0; offset < len(pcm); offset, n = offset+chunkSize, n+1 {
		frame := pcm[offset:min(offset+chunkSize, len(pcm))]
		if n == 0 && format.SampleRate > 0 {
			if frame, err = audio.EncodeWAV(frame, format.SampleRate); err != nil {
				return err
			}
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("failed to send audio frame %d: %w", n, err)
		}
		logger.Debug("Sent audio frame", zap.Int("frame", n), zap.Int("bytes", len(frame)))

		if opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Interval):
			}
		}
	}
	return nil
}

func sendControl(conn *websocket.Conn, msg domain.ControlMessage) error {
	data, err := wsproto.EncodeControlMessage(msg)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.EventType, err)
	}
	return nil
}

// readEvents collects events until the reply audio is complete. Blob replies have no
// final marker, so reading ends after the connection has been idle for opts.Idle.
func readEvents(conn *websocket.Conn, opts turnOptions, result *turnResult, logger *zap.Logger) error {
	replied := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if replied && errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			return fmt.Errorf("connection closed before the reply: %w", err)
		}

		event, err := wsproto.DecodeEvent(data)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, event.EventType)
		logger.Debug("Received event", zap.String("event_type", string(event.EventType)))

		switch event.EventType {
		case domain.EventChatThreadAck:
			result.ThreadID = event.ChatThreadID
		case domain.EventFinalTranscript:
			result.Transcript, _ = event.Text.(string)
		case domain.EventAgentResponse:
			reply, err := wsproto.DecodeAgentResponse(data)
			if err != nil {
				return err
			}
			result.Reply = reply.ResponseText
			result.ThreadID = reply.ChatThreadID
			replied = true
		case domain.EventAudioResponse:
			chunk, err := base64.StdEncoding.DecodeString(event.AudioData)
			if err != nil {
				return fmt.Errorf("invalid audio_data: %w", err)
			}
			result.Audio = append(result.Audio, chunk...)
			result.AudioChunks++
		case domain.EventFinalAudioResponse:
			return nil
		case domain.EventError:
			return fmt.Errorf("%w: %s", errServerError, event.Reason)
		}

		if replied {
			conn.SetReadDeadline(time.Now().Add(opts.Idle))
		}
	}
}
