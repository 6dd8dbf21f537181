package payload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
)

func writeMessages(t *testing.T, first, second string) config.Messages {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Messages{
		First:            filepath.Join(dir, "first.txt"),
		Second:           filepath.Join(dir, "second.txt"),
		Image:            filepath.Join(dir, "image.jpg"),
		Greeting:         "היי %s!",
		GreetingFallback: "היי!",
	}
	require.NoError(t, os.WriteFile(cfg.First, []byte(first), 0o644))
	require.NoError(t, os.WriteFile(cfg.Second, []byte(second), 0o644))
	require.NoError(t, os.WriteFile(cfg.Image, []byte{0xff, 0xd8}, 0o644))
	return cfg
}

func TestLoadMissingFiles(t *testing.T) {
	cfg := writeMessages(t, "a", "b")

	t.Run("missing template", func(t *testing.T) {
		broken := cfg
		broken.First = filepath.Join(t.TempDir(), "missing.txt")
		_, err := Load(broken)
		assert.Error(t, err)
	})

	t.Run("missing image", func(t *testing.T) {
		broken := cfg
		broken.Image = filepath.Join(t.TempDir(), "missing.jpg")
		_, err := Load(broken)
		assert.Error(t, err)
	})
}

func TestPersonalize(t *testing.T) {
	cfg := writeMessages(t, "ברוכים הבאים", "הודעה שנייה")
	p, err := Load(cfg)
	require.NoError(t, err)

	t.Run("first token of name goes into the greeting", func(t *testing.T) {
		got := p.First("דנה לוי")
		assert.Equal(t, RLM+"היי דנה!\nברוכים הבאים", got)
	})

	t.Run("empty name uses the fallback greeting", func(t *testing.T) {
		got := p.First("")
		assert.Equal(t, RLM+"היי!\nברוכים הבאים", got)
	})

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, p.First("דנה"), p.First("דנה"))
	})

	t.Run("second message is the template plus the directional mark", func(t *testing.T) {
		assert.Equal(t, RLM+"הודעה שנייה", p.Second())
	})
}

func TestPersonalizeStripsTemplateRLM(t *testing.T) {
	cfg := writeMessages(t, RLM+"תוכן", "x")
	p, err := Load(cfg)
	require.NoError(t, err)

	// The template's own leading mark must not double up with the one the
	// greeting adds.
	assert.Equal(t, RLM+"היי דנה!\nתוכן", p.First("דנה"))
}

func TestImagePathIsAbsolute(t *testing.T) {
	cfg := writeMessages(t, "a", "b")
	p, err := Load(cfg)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.ImagePath()))
}
