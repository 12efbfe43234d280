package routes

import (
	"speaksea/controllers"

	"github.com/gin-gonic/gin"
)

// SetupVoiceRoutes registers the single-stage speech endpoints under /voice.
func SetupVoiceRoutes(router *gin.RouterGroup, vc *controllers.VoiceController) {
	voice := router.Group("/voice")
	{
		voice.POST("/speech-to-text", vc.SpeechToText)
		voice.POST("/text-to-speech", vc.TextToSpeech)
		voice.POST("/upload-audio", vc.UploadAudio)
		voice.GET("/voices", vc.Voices)
	}
}
