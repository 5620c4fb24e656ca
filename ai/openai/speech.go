package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/poiesic/carefind/ai"
)

// transcriptionFileName is the name sent in the multipart upload.
// Servers infer the container format from its extension.
const transcriptionFileName = "speech.wav"

// Speech implements ai.Transcriber and ai.Synthesizer against the
// OpenAI-compatible /audio endpoints.
type Speech struct {
	client             *goopenai.Client
	transcriptionModel string
	speechModel        goopenai.SpeechModel
	voice              goopenai.SpeechVoice
	logger             *slog.Logger
}

var (
	_ ai.Transcriber = (*Speech)(nil)
	_ ai.Synthesizer = (*Speech)(nil)
)

func newSpeech(config *ai.Config) (*Speech, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := goopenai.DefaultConfig(config.Token())
	clientConfig.BaseURL = config.SpeechHost

	return &Speech{
		client:             goopenai.NewClientWithConfig(clientConfig),
		transcriptionModel: config.TranscriptionModel,
		speechModel:        goopenai.SpeechModel(config.SpeechModel),
		voice:              goopenai.SpeechVoice(config.SpeechVoice),
		logger:             slog.Default().With("component", "openai-speech"),
	}, nil
}

// NewTranscriber creates a speech-to-text service.
func NewTranscriber(config *ai.Config) (ai.Transcriber, error) {
	return newSpeech(config)
}

// NewSynthesizer creates a text-to-speech service.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSpeech(config)
}

// Transcribe sends audio to the transcription endpoint and returns the trimmed text.
func (s *Speech) Transcribe(ctx context.Context, audio []byte, langHint string) (string, error) {
	s.logger.Debug("transcribing audio", "bytes", len(audio), "lang", langHint)

	resp, err := s.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    s.transcriptionModel,
		FilePath: transcriptionFileName,
		Reader:   bytes.NewReader(audio),
		Language: langHint,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		s.logger.Error("transcription failed", "model", s.transcriptionModel, "err", err)
		return "", fmt.Errorf("transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Synthesize renders text as mp3 audio. The tts-1 family picks the language from
// the text itself; newer models also receive lang as a spoken-language instruction.
func (s *Speech) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	req := goopenai.CreateSpeechRequest{
		Model:          s.speechModel,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	}
	if lang != "" && !strings.HasPrefix(string(s.speechModel), "tts-1") {
		req.Instructions = "Speak in the language with ISO code " + lang + "."
	}

	resp, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		s.logger.Error("speech synthesis failed", "model", s.speechModel, "err", err)
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: reading audio: %w", err)
	}
	return audio, nil
}
