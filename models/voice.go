package models

type AudioRequest struct {
	AudioData string `json:"audio_data" binding:"required"`
	Format    string `json:"format"`
}

type SpeechRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

type SpeechToTextResponse struct {
	TranscribedText string  `json:"transcribed_text"`
	Confidence      float64 `json:"confidence"`
	Language        string  `json:"language"`
}

type TextToSpeechResponse struct {
	AudioData []byte `json:"audio_data"`
	Format    string `json:"format"`
}

type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

type VoiceCatalog struct {
	Voices      []Voice `json:"voices"`
	Recommended string  `json:"recommended"`
	Note        string  `json:"note"`
}
