package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "campaign.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "excel.xlsx", cfg.Spreadsheet)
	assert.Equal(t, "run_state.txt", cfg.StateFile)
	assert.Equal(t, 0.5, cfg.Detection.PhoneThreshold)
	assert.Equal(t, 0.8, cfg.Detection.PageThreshold)
	assert.Equal(t, 3, cfg.Detection.Retries)
	assert.Equal(t, "כן", cfg.Statuses.Sent)
	assert.Equal(t, "לא", cfg.Statuses.NotSent)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	content := `
spreadsheet: leads.xlsx
detection:
  phone_threshold: 0.6
  retry_delay: 2s
pauses:
  render: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "leads.xlsx", cfg.Spreadsheet)
	assert.Equal(t, 0.6, cfg.Detection.PhoneThreshold)
	assert.Equal(t, 2*time.Second, cfg.Detection.RetryDelay.Std())
	assert.Equal(t, 10*time.Second, cfg.Pauses.Render.Std())
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.8, cfg.Detection.PageThreshold)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spreadsheet: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OUTREACH_SPREADSHEET", "env.xlsx")
	t.Setenv("OUTREACH_HEADLESS", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env.xlsx", cfg.Spreadsheet)
	assert.True(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Spreadsheet = filepath.Join(dir, "excel.xlsx")
	cfg.Messages.First = filepath.Join(dir, "first.txt")
	cfg.Messages.Second = filepath.Join(dir, "second.txt")
	cfg.Messages.Image = filepath.Join(dir, "image.jpg")

	t.Run("missing spreadsheet", func(t *testing.T) {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spreadsheet")
	})

	t.Run("all files present", func(t *testing.T) {
		for _, p := range []string{cfg.Spreadsheet, cfg.Messages.First, cfg.Messages.Second, cfg.Messages.Image} {
			require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		}
		assert.NoError(t, cfg.Validate())
	})
}
