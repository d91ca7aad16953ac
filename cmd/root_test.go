/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"bytes"
	"testing"
)

func TestRootCmd_Flags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue interface{}
		flagType     string
		persistent   bool
	}{
		{
			name:         "db flag has correct default",
			flagName:     "db",
			defaultValue: "snapmark.db",
			flagType:     "string",
			persistent:   true,
		},
		{
			name:         "static-dir flag has correct default",
			flagName:     "static-dir",
			defaultValue: "static",
			flagType:     "string",
			persistent:   true,
		},
		{
			name:         "browser flag has correct default",
			flagName:     "browser",
			defaultValue: "chromedp",
			flagType:     "string",
			persistent:   true,
		},
		{
			name:         "capture-workers flag has correct default",
			flagName:     "capture-workers",
			defaultValue: 2,
			flagType:     "int",
			persistent:   true,
		},
		{
			name:         "port flag has correct default",
			flagName:     "port",
			defaultValue: 8080,
			flagType:     "int",
		},
		{
			name:         "host flag has correct default",
			flagName:     "host",
			defaultValue: "localhost",
			flagType:     "string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := rootCmd.Flags()
			if tt.persistent {
				flags = rootCmd.PersistentFlags()
			}

			var flag interface{}
			var err error
			switch tt.flagType {
			case "string":
				flag, err = flags.GetString(tt.flagName)
			case "int":
				flag, err = flags.GetInt(tt.flagName)
			}

			if err != nil {
				t.Fatalf("Failed to get flag %s: %v", tt.flagName, err)
			}

			if flag != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := map[string]bool{"capture": false, "user": false, "import FILE": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}

	for use, found := range want {
		if !found {
			t.Errorf("Expected %q subcommand to be registered", use)
		}
	}
}

func TestRootCmd_UsageOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	// Test that usage doesn't error
	err := rootCmd.Usage()
	if err != nil {
		t.Errorf("Usage() returned error: %v", err)
	}

	output := buf.String()
	if output == "" {
		t.Error("Expected usage output, got empty string")
	}
}

func TestRootCmd_CommandMetadata(t *testing.T) {
	if rootCmd.Use != "snapmark" {
		t.Errorf("Expected Use to be 'snapmark', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
}

func TestRootCmd_FlagsBoundToConfig(t *testing.T) {
	keys := []string{"db", "static_dir", "browser.driver", "capture.workers", "log.level", "port", "host"}
	for _, key := range keys {
		if !v.IsSet(key) {
			t.Errorf("Expected config key %s to be set", key)
		}
	}
}
