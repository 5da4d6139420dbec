package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCatalogCommandListsServices(t *testing.T) {
	dir := t.TempDir()

	service := `{
		"name": "paystack",
		"baseUrl": "https://api.paystack.co",
		"authentication": {"type": "bearer", "token": "tok"},
		"compliance": {"pci": true, "psd2": true},
		"metadata": {"category": "payments"},
		"endpoints": [
			{"name": "initialize-transaction", "method": "POST", "path": "/transaction/initialize"}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "paystack.json"), []byte(service), 0o600); err != nil {
		t.Fatal(err)
	}

	cat := `{"services": [{"name": "paystack", "configFile": "paystack.json"}]}`
	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(cat), 0o600); err != nil {
		t.Fatal(err)
	}

	catalogCmd := newCatalogCmd()
	var buf bytes.Buffer
	catalogCmd.SetOut(&buf)
	catalogCmd.SetArgs([]string{"--catalog", catalogPath})

	if err := catalogCmd.Execute(); err != nil {
		t.Fatalf("catalog command failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"paystack", "payments", "bearer", "PCI,PSD2"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "tok") {
		t.Error("Expected no secret values in catalog output")
	}
}

func TestCatalogCommandMissingFile(t *testing.T) {
	catalogCmd := newCatalogCmd()
	catalogCmd.SetOut(new(bytes.Buffer))
	catalogCmd.SetErr(new(bytes.Buffer))
	catalogCmd.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "nope.json")})

	if err := catalogCmd.Execute(); err == nil {
		t.Error("Expected an error for a missing catalog file")
	}
}
