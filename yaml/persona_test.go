package yaml_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePersona(t *testing.T) {
	t.Parallel()

	t.Run("overrides selected fields", func(t *testing.T) {
		t.Parallel()
		doc := "chat_instruction: |\n  You are Calmly. Reply in JSON.\n"
		p, err := yaml.DecodePersona(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, "You are Calmly. Reply in JSON.\n", p.ChatInstruction)
		assert.Equal(t, tranquility.DefaultPersona().TonePrompt, p.TonePrompt)
	})

	t.Run("empty document is the default", func(t *testing.T) {
		t.Parallel()
		p, err := yaml.DecodePersona(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, tranquility.DefaultPersona(), p)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.DecodePersona(strings.NewReader("chat_prompt: typo\n"))
		assert.Error(t, err)
	})

	t.Run("blanking a field fails validation", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.DecodePersona(strings.NewReader("advice_prompt: \"\"\n"))
		assert.ErrorIs(t, err, tranquility.ErrValidation)
	})
}

func TestLoadPersona(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		p, err := yaml.LoadPersona("")
		require.NoError(t, err)
		assert.Equal(t, tranquility.DefaultPersona(), p)
	})

	t.Run("round trips through a file", func(t *testing.T) {
		t.Parallel()
		want := tranquility.DefaultPersona()
		want.AdvicePrompt = "Offer one small next step."

		var buf bytes.Buffer
		require.NoError(t, yaml.EncodePersona(&buf, want))
		path := filepath.Join(t.TempDir(), "persona.yaml")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		got, err := yaml.LoadPersona(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.LoadPersona(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
