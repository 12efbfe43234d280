package utils

import (
	"path/filepath"
	"strings"
)

// AudioFormatFromFilename maps an uploaded file's extension onto a format the
// transcription API accepts. Unknown extensions are treated as mp3.
func AudioFormatFromFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "mp3", "mpeg", "mpga":
		return "mp3"
	case "wav", "wave":
		return "wav"
	case "m4a", "mp4":
		return "m4a"
	case "ogg", "oga":
		return "ogg"
	case "webm":
		return "webm"
	case "flac":
		return "flac"
	default:
		return "mp3"
	}
}
