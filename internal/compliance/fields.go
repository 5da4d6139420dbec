package compliance

import (
	"fmt"
	"os"
	"sync"

	"toolgate/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FieldConfig is the data-handling field configuration. The lists are
// configuration, not code constants: they load from a YAML file at startup
// and change only through a managed reload.
type FieldConfig struct {
	PCI struct {
		// Prohibited fields are deleted outright wherever they appear.
		Prohibited []string `yaml:"prohibited"`
		// Card fields are masked to first6 + '*'... + last4.
		CardFields []string `yaml:"cardFields"`
		// Sensitive fields are encrypted with the process-wide key.
		Sensitive []string `yaml:"sensitive"`
	} `yaml:"pci"`

	GDPR struct {
		// Pseudonymize lists personal identifiers replaced by keyed HMAC.
		Pseudonymize []string `yaml:"pseudonymize"`
		// ConsentRequired fields demand an accompanying consentId.
		ConsentRequired []string `yaml:"consentRequired"`
		// AnalyticsAllow is the payload allow-list for analytics operations.
		AnalyticsAllow []string `yaml:"analyticsAllow"`
	} `yaml:"gdpr"`

	PSD2 struct {
		// AmountThreshold is the amount above which SCA is required.
		AmountThreshold float64 `yaml:"amountThreshold"`
		// CumulativeWindowHours is reserved for cumulative-amount SCA.
		// TODO: cumulative checks need a per-payer transaction store; until
		// then only the per-request threshold is enforced.
		CumulativeWindowHours int `yaml:"cumulativeWindowHours"`
	} `yaml:"psd2"`
}

// DefaultFieldConfig returns the built-in field lists used when no file is
// configured.
func DefaultFieldConfig() FieldConfig {
	var cfg FieldConfig
	cfg.PCI.Prohibited = []string{
		"cvv", "cvc", "cvv2", "cvc2", "cid", "cav2",
		"track1", "track2", "magneticStripe", "pin", "pinBlock",
	}
	cfg.PCI.CardFields = []string{"cardNumber", "card_number", "pan", "primaryAccountNumber"}
	cfg.PCI.Sensitive = []string{"accountNumber", "account_number", "iban", "routingNumber"}
	cfg.GDPR.Pseudonymize = []string{"email", "phone", "firstName", "lastName", "fullName", "address"}
	cfg.GDPR.ConsentRequired = []string{"email", "phone", "address", "dateOfBirth"}
	cfg.GDPR.AnalyticsAllow = []string{"amount", "currency", "country", "timestamp", "category", "status"}
	cfg.PSD2.AmountThreshold = 30
	return cfg
}

// FieldLists holds the current field configuration and reloads it when the
// backing file changes.
type FieldLists struct {
	path string

	mu  sync.RWMutex
	cfg FieldConfig
}

// LoadFieldLists reads the field configuration from path. An empty path
// yields the built-in defaults with no reload watching.
func LoadFieldLists(path string) (*FieldLists, error) {
	fl := &FieldLists{path: path, cfg: DefaultFieldConfig()}
	if path == "" {
		return fl, nil
	}
	if err := fl.reload(); err != nil {
		return nil, err
	}
	return fl, nil
}

// Current returns the active field configuration.
func (fl *FieldLists) Current() FieldConfig {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.cfg
}

// Watch reloads the configuration whenever the backing file is written.
// It blocks until done is closed and is intended to run as a goroutine.
func (fl *FieldLists) Watch(done <-chan struct{}) error {
	if fl.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create field list watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(fl.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fl.path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := fl.reload(); err != nil {
				logging.Warn("Compliance", "Field list reload failed, keeping previous lists: %v", err)
				continue
			}
			logging.Info("Compliance", "Reloaded field lists from %s", fl.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Compliance", "Field list watcher error: %v", err)
		case <-done:
			return nil
		}
	}
}

func (fl *FieldLists) reload() error {
	raw, err := os.ReadFile(fl.path)
	if err != nil {
		return err
	}

	cfg := DefaultFieldConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("field list file %s is malformed: %w", fl.path, err)
	}

	fl.mu.Lock()
	fl.cfg = cfg
	fl.mu.Unlock()
	return nil
}
