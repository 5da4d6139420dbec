package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoadsValidServices(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "paystack.json", `{
		"name": "paystack",
		"baseUrl": "https://api.paystack.co",
		"authentication": {"type": "bearer", "token": "sk_test"},
		"capabilities": ["payments"],
		"metadata": {"category": "payments", "countries": ["NG", "GH"]},
		"compliance": {"pci": true},
		"endpoints": [
			{"name": "initialize-transaction", "method": "post", "path": "/transaction/initialize"}
		]
	}`)
	writeFile(t, dir, "catalog.json", `{
		"services": [
			{"name": "paystack", "configFile": "paystack.json"}
		]
	}`)

	loader := NewLoader(dir)
	descriptors, err := loader.Load("catalog.json")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	desc := descriptors[0]
	assert.Equal(t, "paystack", desc.Name)
	assert.Equal(t, AuthBearer, desc.Authentication.Type)
	assert.Equal(t, "POST", desc.Endpoints[0].Method, "methods are normalized to upper case")
	assert.Equal(t, "payments", desc.Category())
	assert.Equal(t, []string{"NG", "GH"}, desc.MetadataStrings("countries"))
	assert.True(t, desc.Compliance.PCI)
}

func TestLoaderSkipsInvalidServices(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "good.json", `{
		"name": "good",
		"baseUrl": "https://api.example.com",
		"authentication": {"type": "none"}
	}`)
	writeFile(t, dir, "bad-url.json", `{
		"name": "bad-url",
		"baseUrl": "not-a-url",
		"authentication": {"type": "none"}
	}`)
	writeFile(t, dir, "bad-auth.json", `{
		"name": "bad-auth",
		"baseUrl": "https://api.example.com",
		"authentication": {"type": "kerberos"}
	}`)
	writeFile(t, dir, "catalog.json", `{
		"services": [
			{"name": "good", "configFile": "good.json"},
			{"name": "bad-url", "configFile": "bad-url.json"},
			{"name": "bad-auth", "configFile": "bad-auth.json"},
			{"name": "missing", "configFile": "missing.json"}
		]
	}`)

	loader := NewLoader(dir)
	descriptors, err := loader.Load("catalog.json")
	require.NoError(t, err, "invalid services are skipped, not fatal")
	require.Len(t, descriptors, 1)
	assert.Equal(t, "good", descriptors[0].Name)
}

func TestLoaderExpandsEnvSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_PAYSTACK_SECRET", "sk_live_abc")

	writeFile(t, dir, "svc.json", `{
		"name": "svc",
		"baseUrl": "https://api.example.com",
		"authentication": {"type": "bearer", "token": "${TEST_PAYSTACK_SECRET}"}
	}`)
	writeFile(t, dir, "catalog.json", `{"services": [{"name": "svc", "configFile": "svc.json"}]}`)

	descriptors, err := NewLoader(dir).Load("catalog.json")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "sk_live_abc", descriptors[0].Authentication.Token)
}

func TestLoaderBaseURLOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOOLGATE_MY_SVC_BASE_URL", "https://staging.example.com")

	writeFile(t, dir, "svc.json", `{
		"name": "my-svc",
		"baseUrl": "https://api.example.com",
		"authentication": {"type": "none"}
	}`)
	writeFile(t, dir, "catalog.json", `{"services": [{"name": "my-svc", "configFile": "svc.json"}]}`)

	descriptors, err := NewLoader(dir).Load("catalog.json")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "https://staging.example.com", descriptors[0].BaseURL)
}

func TestValidateEndpoints(t *testing.T) {
	desc := &ServiceDescriptor{
		Name:    "svc",
		BaseURL: "https://api.example.com",
		Endpoints: []Endpoint{
			{Name: "get-thing", Path: "no-leading-slash"},
		},
	}
	err := Validate(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path")
}

func TestLoaderMissingCatalogFails(t *testing.T) {
	_, err := NewLoader(t.TempDir()).Load("nope.json")
	assert.Error(t, err)
}
