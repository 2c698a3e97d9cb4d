package tranquility_test

import (
	"testing"

	"github.com/fwojciec/tranquility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudio_Validate(t *testing.T) {
	t.Parallel()

	t.Run("empty clip", func(t *testing.T) {
		t.Parallel()
		a := tranquility.Audio{}
		assert.ErrorIs(t, a.Validate(), tranquility.ErrValidation)
	})

	t.Run("fills default type", func(t *testing.T) {
		t.Parallel()
		a := tranquility.Audio{Data: []byte("clip")}
		require.NoError(t, a.Validate())
		assert.Equal(t, "audio/webm;codecs=opus", a.MIMEType)
	})

	t.Run("keeps explicit type", func(t *testing.T) {
		t.Parallel()
		a := tranquility.Audio{Data: []byte("clip"), MIMEType: "audio/wav"}
		require.NoError(t, a.Validate())
		assert.Equal(t, "audio/wav", a.MIMEType)
	})
}

func TestAudioMIMEType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tranquility.DefaultAudioMIMEType, tranquility.AudioMIMEType("a/b/clip.webm"))
	assert.Equal(t, "audio/wav", tranquility.AudioMIMEType("CLIP.WAV"))
	assert.Equal(t, "audio/mp4", tranquility.AudioMIMEType("memo.m4a"))
	assert.Equal(t, tranquility.DefaultAudioMIMEType, tranquility.AudioMIMEType("noext"))
}

func TestIsAudioPath(t *testing.T) {
	t.Parallel()

	assert.True(t, tranquility.IsAudioPath("recordings/day1.webm"))
	assert.True(t, tranquility.IsAudioPath("memo.OGG"))
	assert.False(t, tranquility.IsAudioPath("journal.txt"))
	assert.False(t, tranquility.IsAudioPath("noext"))
}
