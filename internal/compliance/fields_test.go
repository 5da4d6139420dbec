package compliance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fieldYAML = `
pci:
  prohibited: [cvv, pin]
  cardFields: [cardNumber]
gdpr:
  consentRequired: [email]
  analyticsAllow: [amount]
psd2:
  amountThreshold: 50
`

func TestLoadFieldListsDefaults(t *testing.T) {
	fl, err := LoadFieldLists("")
	require.NoError(t, err)

	cfg := fl.Current()
	assert.Contains(t, cfg.PCI.Prohibited, "cvv2")
	assert.Contains(t, cfg.PCI.Prohibited, "pinBlock")
	assert.Equal(t, float64(30), cfg.PSD2.AmountThreshold)
}

func TestLoadFieldListsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fieldYAML), 0o600))

	fl, err := LoadFieldLists(path)
	require.NoError(t, err)

	cfg := fl.Current()
	assert.Equal(t, []string{"cvv", "pin"}, cfg.PCI.Prohibited)
	assert.Equal(t, float64(50), cfg.PSD2.AmountThreshold)
}

func TestLoadFieldListsMissingFile(t *testing.T) {
	_, err := LoadFieldLists(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fieldYAML), 0o600))

	fl, err := LoadFieldLists(path)
	require.NoError(t, err)

	done := make(chan struct{})
	defer close(done)
	go fl.Watch(done)

	// Give the watcher a moment to register before rewriting.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`
psd2:
  amountThreshold: 75
`), 0o600))

	require.Eventually(t, func() bool {
		return fl.Current().PSD2.AmountThreshold == 75
	}, 2*time.Second, 20*time.Millisecond)

	// Unlisted sections fall back to the defaults on reload.
	assert.Contains(t, fl.Current().PCI.Prohibited, "cvv")
}
