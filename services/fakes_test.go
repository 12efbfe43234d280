package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"speaksea/models"
)

// wavClip is the smallest payload the audio sniffer recognises as WAV.
func wavClip() []byte {
	clip := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00")
	return append(clip, make([]byte, 24)...)
}

func encodedWav() string {
	return base64.StdEncoding.EncodeToString(wavClip())
}

type stubTranscriber struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	format string
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, format string) (*Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.format = format
	if s.err != nil {
		return nil, s.err
	}
	return &Transcript{Text: s.text, Language: "en", Confidence: 1.0}, nil
}

// stubSynthesizer answers with one byte per input character.
type stubSynthesizer struct {
	mu    sync.Mutex
	err   error
	calls int
	text  string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.text = text
	if s.err != nil {
		return nil, s.err
	}
	return bytes.Repeat([]byte{0x7f}, len(text)), nil
}

type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	// block waits for the context to end and returns its error.
	block bool
	calls int
	last  CompletionRequest
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.last = req
	reply, err, block := s.reply, s.err, s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memorySink struct {
	mu      sync.Mutex
	records []*models.ExamRecord
	err     error
}

func (m *memorySink) Save(_ context.Context, record *models.ExamRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
