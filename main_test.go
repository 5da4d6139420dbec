package main

import (
	"testing"

	"toolgate/cmd"
)

func TestVersion(t *testing.T) {
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}
}

func TestSetVersion(t *testing.T) {
	// SetVersion must accept whatever -ldflags injects.
	cmd.SetVersion("1.2.3")
	cmd.SetVersion(version)
}
