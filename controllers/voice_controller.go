package controllers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"speaksea/models"
	"speaksea/services"
	"speaksea/utils"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes matches the transcription API's file size limit.
const maxUploadBytes = 25 << 20

// VoiceController exposes the speech adapters directly, bypassing the
// conversation pipeline.
type VoiceController struct {
	transcriber services.Transcriber
	synthesizer services.Synthesizer
	logger      *slog.Logger
}

func NewVoiceController(stt services.Transcriber, tts services.Synthesizer, logger *slog.Logger) *VoiceController {
	return &VoiceController{transcriber: stt, synthesizer: tts, logger: logger}
}

func (vc *VoiceController) SpeechToText(c *gin.Context) {
	var req models.AudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, vc.logger, bindError(err))
		return
	}

	audio, err := services.DecodeAudio(req.AudioData, req.Format)
	if err != nil {
		respondError(c, vc.logger, err)
		return
	}
	vc.transcribe(c, audio.Data, audio.Format)
}

func (vc *VoiceController) TextToSpeech(c *gin.Context) {
	var req models.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, vc.logger, bindError(err))
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	audio, err := vc.synthesizer.Synthesize(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		respondError(c, vc.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.TextToSpeechResponse{AudioData: audio, Format: "mp3"})
}

// UploadAudio transcribes a multipart "file" upload. The format is taken from
// the file extension.
func (vc *VoiceController) UploadAudio(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, vc.logger, &services.DecodeError{Field: "file", Err: err})
		return
	}
	if header.Size > maxUploadBytes {
		respondError(c, vc.logger, &services.DecodeError{Field: "file", Err: fmt.Errorf("larger than %d bytes", maxUploadBytes)})
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, vc.logger, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respondError(c, vc.logger, fmt.Errorf("reading upload: %w", err))
		return
	}
	if len(data) == 0 {
		respondError(c, vc.logger, &services.DecodeError{Field: "file", Err: errors.New("empty upload")})
		return
	}

	vc.transcribe(c, data, utils.AudioFormatFromFilename(header.Filename))
}

func (vc *VoiceController) Voices(c *gin.Context) {
	c.JSON(http.StatusOK, services.AvailableVoices())
}

func (vc *VoiceController) transcribe(c *gin.Context, audio []byte, format string) {
	transcript, err := vc.transcriber.Transcribe(c.Request.Context(), audio, format)
	if err != nil {
		respondError(c, vc.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SpeechToTextResponse{
		TranscribedText: transcript.Text,
		Confidence:      transcript.Confidence,
		Language:        transcript.Language,
	})
}
