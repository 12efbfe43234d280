package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecodedAudio is a validated audio clip ready for transcription.
type DecodedAudio struct {
	Data     []byte
	MIMEType string
	Format   string
}

var acceptedContainerTypes = map[string]bool{
	"video/webm":      true,
	"video/mp4":       true,
	"application/ogg": true,
}

// DecodeAudio decodes a base64 audio payload, optionally prefixed with a
// data URL header, and checks that the bytes look like audio.
func DecodeAudio(encoded, format string) (*DecodedAudio, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, newDecodeError("audio", errors.New("malformed data URL"))
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, newDecodeError("audio", errors.New("empty payload"))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some recorders strip the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, newDecodeError("audio", fmt.Errorf("not base64: %w", err))
		}
	}
	if len(data) == 0 {
		return nil, newDecodeError("audio", errors.New("empty payload"))
	}

	mtype := mimetype.Detect(data)
	if !isAudioType(mtype) {
		return nil, newDecodeError("audio", fmt.Errorf("unsupported content type %s", mtype.String()))
	}

	if format == "" {
		format = strings.TrimPrefix(mtype.Extension(), ".")
	}
	return &DecodedAudio{Data: data, MIMEType: mtype.String(), Format: strings.ToLower(format)}, nil
}

func isAudioType(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || acceptedContainerTypes[m.String()] {
			return true
		}
	}
	return false
}
