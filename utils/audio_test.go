package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudioFormatFromFilename(t *testing.T) {
	cases := map[string]string{
		"clip.MP3":       "mp3",
		"clip.mpga":      "mp3",
		"answer.wave":    "wav",
		"answer.wav":     "wav",
		"voice.mp4":      "m4a",
		"voice.m4a":      "m4a",
		"take.oga":       "ogg",
		"take.webm":      "webm",
		"take.flac":      "flac",
		"notes.txt":      "mp3",
		"no-extension":   "mp3",
		"dir.v2/rec.ogg": "ogg",
	}
	for name, want := range cases {
		require.Equal(t, want, AudioFormatFromFilename(name), name)
	}
}
