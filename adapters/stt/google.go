package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/voxcal/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud streaming recognition
type GoogleSpeechToText struct {
	client *speech.Client
	open   func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)
	logger *zap.Logger
}

// NewGoogleSpeechToText creates the process-wide speech client
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleSpeechToText{
		client: client,
		open: func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
			return client.StreamingRecognize(ctx)
		},
		logger: logger,
	}, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleSpeechToText) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Transcribe implements SpeechToText. Audio is sent from a separate goroutine while
// results are received here, so interim results arrive while the user is still speaking.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, config repositories.AudioConfig, audio iter.Seq[[]byte], onResult func(repositories.TranscriptResult)) error {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return err
	}

	stream, err := g.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   encoding,
					SampleRateHertz:            int32(config.SampleRate),
					LanguageCode:               config.Language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		return fmt.Errorf("failed to send streaming config: %w", err)
	}

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- g.sendAudio(stream, audio)
	}()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to receive response: %w", err)
		}

		for _, result := range resp.GetResults() {
			alternatives := result.GetAlternatives()
			if len(alternatives) == 0 {
				continue
			}
			onResult(repositories.TranscriptResult{
				Text:       alternatives[0].GetTranscript(),
				IsFinal:    result.GetIsFinal(),
				Confidence: alternatives[0].GetConfidence(),
			})
		}
	}

	return <-sendDone
}

func (g *GoogleSpeechToText) sendAudio(stream speechpb.Speech_StreamingRecognizeClient, audio iter.Seq[[]byte]) error {
	sent := 0
	for chunk := range audio {
		if err := stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
				AudioContent: chunk,
			},
		}); err != nil {
			stream.CloseSend()
			return fmt.Errorf("failed to send audio data: %w", err)
		}
		sent += len(chunk)
	}

	g.logger.Debug("Audio stream complete", zap.Int("bytes", sent))

	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("failed to close send stream: %w", err)
	}
	return nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
