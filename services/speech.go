package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"speaksea/models"
)

// Transcript is the text heard in one audio clip.
type Transcript struct {
	Text       string
	Language   string
	Confidence float64
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (*Transcript, error)
}

// Synthesizer turns examiner text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

const (
	transcriptionLanguage = "en"
	synthesisFormat       = "mp3"
)

// OpenAISpeech implements both speech stages against the OpenAI audio API.
type OpenAISpeech struct {
	apiKey     string
	baseURL    string
	sttModel   string
	ttsModel   string
	voice      string
	httpClient *http.Client
}

type SpeechOption func(*OpenAISpeech)

func WithSpeechModels(stt, tts string) SpeechOption {
	return func(s *OpenAISpeech) {
		if stt != "" {
			s.sttModel = stt
		}
		if tts != "" {
			s.ttsModel = tts
		}
	}
}

func WithVoice(voice string) SpeechOption {
	return func(s *OpenAISpeech) {
		if voice != "" {
			s.voice = voice
		}
	}
}

func WithSpeechBaseURL(baseURL string) SpeechOption {
	return func(s *OpenAISpeech) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithSpeechHTTPClient(c *http.Client) SpeechOption {
	return func(s *OpenAISpeech) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func NewOpenAISpeech(apiKey string, opts ...SpeechOption) *OpenAISpeech {
	s := &OpenAISpeech{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com/v1",
		sttModel:   "whisper-1",
		ttsModel:   "tts-1",
		voice:      "nova",
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends audio to Whisper once. The language is pinned to English
// and confidence is reported as 1.0 since the API returns none.
func (s *OpenAISpeech) Transcribe(ctx context.Context, audio []byte, format string) (*Transcript, error) {
	if s.apiKey == "" {
		return nil, s.fail(StageTranscription, 0, errors.New("api key missing"))
	}
	if format == "" {
		format = "wav"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err = part.Write(audio); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	if err = writer.WriteField("model", s.sttModel); err != nil {
		return nil, fmt.Errorf("writing model field: %w", err)
	}
	if err = writer.WriteField("language", transcriptionLanguage); err != nil {
		return nil, fmt.Errorf("writing language field: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.fail(StageTranscription, 0, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, s.fail(StageTranscription, resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(b))))
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, s.fail(StageTranscription, 0, fmt.Errorf("decoding response: %w", err))
	}

	return &Transcript{
		Text:       strings.TrimSpace(result.Text),
		Language:   transcriptionLanguage,
		Confidence: 1.0,
	}, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns MP3 audio for text. The language argument is accepted
// but the voice never changes.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, s.fail(StageSynthesis, 0, errors.New("api key missing"))
	}

	payload, err := json.Marshal(speechRequest{
		Model:          s.ttsModel,
		Voice:          s.voice,
		Input:          text,
		ResponseFormat: synthesisFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.fail(StageSynthesis, 0, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, s.fail(StageSynthesis, resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(b))))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.fail(StageSynthesis, 0, fmt.Errorf("reading audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, s.fail(StageSynthesis, 0, errors.New("empty audio"))
	}
	return audio, nil
}

func (s *OpenAISpeech) fail(stage Stage, status int, err error) error {
	return &ProviderError{Provider: "openai", Stage: stage, StatusCode: status, Err: err}
}

// AvailableVoices lists the synthesis voices the examiner can speak with.
func AvailableVoices() models.VoiceCatalog {
	return models.VoiceCatalog{
		Voices: []models.Voice{
			{ID: "alloy", Name: "Alloy", Gender: "neutral"},
			{ID: "echo", Name: "Echo", Gender: "male"},
			{ID: "fable", Name: "Fable", Gender: "neutral"},
			{ID: "onyx", Name: "Onyx", Gender: "male"},
			{ID: "nova", Name: "Nova", Gender: "female"},
			{ID: "shimmer", Name: "Shimmer", Gender: "female"},
		},
		Recommended: "nova",
		Note:        "Voices are optimized for English",
	}
}
