package mock

import (
	"context"
	"sync"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, Transcribe returns Text.
	TranscribeFunc func(ctx context.Context, audio []byte, langHint string) (string, error)

	// Text is returned by the default behavior.
	Text string

	mu        sync.Mutex
	callCount int
	lastLang  string
}

// NewMockTranscriber creates a transcriber that always returns text.
func NewMockTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{Text: text}
}

// Transcribe returns the canned text or delegates to TranscribeFunc.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, langHint string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastLang = langHint
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, langHint)
	}
	return m.Text, nil
}

// CallCount returns the number of Transcribe calls.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastLanguage returns the language hint of the most recent call.
func (m *MockTranscriber) LastLanguage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLang
}

// MockSynthesizer is a test double for ai.Synthesizer.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, Synthesize returns the text bytes prefixed with "audio:".
	SynthesizeFunc func(ctx context.Context, text, lang string) ([]byte, error)

	mu       sync.Mutex
	texts    []string
	lastLang string
}

// NewMockSynthesizer creates a synthesizer with default behavior.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize records the request and returns fake audio.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.lastLang = lang
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, lang)
	}
	return []byte("audio:" + text), nil
}

// Texts returns every text passed to Synthesize, in call order.
func (m *MockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// LastLanguage returns the language of the most recent call.
func (m *MockSynthesizer) LastLanguage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLang
}
