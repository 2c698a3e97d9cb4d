package tranquility

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultAudioMIMEType is the type produced by browser voice capture.
const DefaultAudioMIMEType = "audio/webm;codecs=opus"

// Audio is a recorded clip submitted for tone analysis.
type Audio struct {
	MIMEType string
	Data     []byte
}

// Validate checks the clip has content and fills in the default MIME type.
func (a *Audio) Validate() error {
	if len(a.Data) == 0 {
		return fmt.Errorf("audio clip is empty: %w", ErrValidation)
	}
	if a.MIMEType == "" {
		a.MIMEType = DefaultAudioMIMEType
	}
	return nil
}

var audioExtensions = map[string]string{
	".webm": DefaultAudioMIMEType,
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".mp3":  "audio/mp3",
	".mp4":  "audio/mp4",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// AudioMIMEType guesses the MIME type of an audio file from its extension.
// Unknown extensions fall back to DefaultAudioMIMEType.
func AudioMIMEType(path string) string {
	if t, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return DefaultAudioMIMEType
}

// IsAudioPath reports whether path has a known audio extension.
func IsAudioPath(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
