package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"toolgate/pkg/logging"
)

// Loader reads the service catalog from disk. Missing or invalid descriptor
// files are logged and skipped so a single broken service never prevents
// startup.
type Loader struct {
	// baseDir anchors relative paths in catalog.json.
	baseDir string
}

// NewLoader creates a loader anchored at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Load reads catalogPath (absolute, or relative to the loader's base
// directory), then loads and validates every referenced descriptor.
//
// Returns the descriptors that loaded cleanly. An error is returned only
// when the catalog file itself cannot be read or parsed.
func (l *Loader) Load(catalogPath string) ([]ServiceDescriptor, error) {
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(l.baseDir, catalogPath)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", catalogPath, err)
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", catalogPath, err)
	}

	catalogDir := filepath.Dir(catalogPath)
	descriptors := make([]ServiceDescriptor, 0, len(file.Services))
	seen := make(map[string]bool, len(file.Services))

	for _, entry := range file.Services {
		desc, err := l.loadDescriptor(catalogDir, entry)
		if err != nil {
			logging.Warn("Catalog", "Skipping service %s: %v", entry.Name, err)
			continue
		}
		if seen[desc.Name] {
			logging.Warn("Catalog", "Skipping duplicate service name: %s", desc.Name)
			continue
		}
		seen[desc.Name] = true
		descriptors = append(descriptors, *desc)
	}

	logging.Info("Catalog", "Loaded %d of %d services from %s", len(descriptors), len(file.Services), catalogPath)
	return descriptors, nil
}

// loadDescriptor reads, expands, and validates one descriptor file.
func (l *Loader) loadDescriptor(catalogDir string, entry CatalogEntry) (*ServiceDescriptor, error) {
	path := entry.ConfigFile
	if entry.Directory != "" {
		path = filepath.Join(entry.Directory, path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(catalogDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	// Secrets in descriptors are ${VAR} references, never literals.
	expanded := os.Expand(string(data), func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		logging.Debug("Catalog", "Environment variable %s referenced by %s is unset", name, entry.Name)
		return ""
	})

	var desc ServiceDescriptor
	if err := json.Unmarshal([]byte(expanded), &desc); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}

	if desc.Name == "" {
		desc.Name = entry.Name
	}

	applyBaseURLOverride(&desc)

	if err := Validate(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// applyBaseURLOverride honors per-service base URL overrides of the form
// TOOLGATE_<NAME>_BASE_URL, with the service name uppercased and hyphens
// mapped to underscores.
func applyBaseURLOverride(desc *ServiceDescriptor) {
	key := "TOOLGATE_" + strings.ToUpper(strings.ReplaceAll(desc.Name, "-", "_")) + "_BASE_URL"
	if override := os.Getenv(key); override != "" {
		logging.Info("Catalog", "Base URL for %s overridden via %s", desc.Name, key)
		desc.BaseURL = override
	}
}

// Validate checks the descriptor invariants: a non-empty name, an absolute
// base URL, a known authentication type, and well-formed endpoints.
func Validate(desc *ServiceDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}

	u, err := url.Parse(desc.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("baseUrl %q is not an absolute URL", desc.BaseURL)
	}

	switch desc.Authentication.Type {
	case "", AuthNone:
		desc.Authentication.Type = AuthNone
	case AuthBearer, AuthAPIKey, AuthBasic, AuthHMAC, AuthOAuth2:
	default:
		return fmt.Errorf("unknown authentication type %q", desc.Authentication.Type)
	}

	for i, ep := range desc.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoint %d has no name", i)
		}
		if ep.Path == "" || !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("endpoint %s has invalid path %q", ep.Name, ep.Path)
		}
		if ep.Method == "" {
			desc.Endpoints[i].Method = "GET"
		} else {
			desc.Endpoints[i].Method = strings.ToUpper(ep.Method)
		}
	}

	return nil
}
