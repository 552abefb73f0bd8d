package main

import (
	"testing"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		t.Setenv("SOUNDER_CONFIG", "")
		if got := getConfigPath(); got != defaultConfigPath {
			t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("SOUNDER_CONFIG", "/etc/sounder/config.yaml")
		if got := getConfigPath(); got != "/etc/sounder/config.yaml" {
			t.Errorf("getConfigPath() = %q, want override", got)
		}
	})
}
