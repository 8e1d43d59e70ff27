package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name:    "default config",
			envVars: map[string]string{},
			wantErr: false,
		},
		{
			name: "custom config",
			envVars: map[string]string{
				"SERVICE_NAME":            "test-service",
				"LISTEN_PORT":             "4444",
				"REQUIRE_VERIFIED_MINERS": "true",
				"VERIFIER_TIMEOUT":        "10s",
			},
			wantErr: false,
		},
		{
			name: "invalid port",
			envVars: map[string]string{
				"LISTEN_PORT": "99999",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for key, value := range tt.envVars {
				if err := os.Setenv(key, value); err != nil {
					t.Fatalf("failed to set environment variable %s: %v", key, err)
				}
			}
			defer func() {
				// Clean up environment variables
				for key := range tt.envVars {
					if err := os.Unsetenv(key); err != nil {
						t.Logf("failed to unset environment variable %s: %v", key, err)
					}
				}
			}()

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				// Verify some basic fields
				if cfg.ServiceName == "" {
					t.Error("ServiceName should not be empty")
				}
				if cfg.ListenPort <= 0 {
					t.Error("ListenPort should be positive")
				}
			}
		})
	}
}

func TestLoad_PolicyKnobs(t *testing.T) {
	if err := os.Setenv("REQUIRE_VERIFIED_MINERS", "true"); err != nil {
		t.Fatalf("failed to set REQUIRE_VERIFIED_MINERS: %v", err)
	}
	if err := os.Setenv("ALLOW_CLAIM_BEFORE_END", "true"); err != nil {
		t.Fatalf("failed to set ALLOW_CLAIM_BEFORE_END: %v", err)
	}
	defer func() {
		for _, key := range []string{"REQUIRE_VERIFIED_MINERS", "ALLOW_CLAIM_BEFORE_END"} {
			if err := os.Unsetenv(key); err != nil {
				t.Logf("failed to unset %s: %v", key, err)
			}
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.RequireVerifiedMiners {
		t.Error("Expected RequireVerifiedMiners = true")
	}
	if !cfg.AllowClaimBeforeEnd {
		t.Error("Expected AllowClaimBeforeEnd = true")
	}
}

func TestConfigValidation(t *testing.T) {
	valid := &Config{
		ServiceName:     "test",
		ListenPort:      8480,
		KafkaBrokers:    []string{"localhost:9092"},
		JournalPath:     "events.db",
		VerifierTimeout: 30 * time.Second,
	}

	if err := valid.validate(); err != nil {
		t.Errorf("validate() should not fail for valid config: %v", err)
	}

	// Test invalid configurations
	invalidConfigs := []*Config{
		{ServiceName: "", ListenPort: 8480, KafkaBrokers: []string{"b"}, JournalPath: "e.db", VerifierTimeout: time.Second},
		{ServiceName: "test", ListenPort: 0, KafkaBrokers: []string{"b"}, JournalPath: "e.db", VerifierTimeout: time.Second},
		{ServiceName: "test", ListenPort: 8480, KafkaBrokers: nil, JournalPath: "e.db", VerifierTimeout: time.Second},
		{ServiceName: "test", ListenPort: 8480, KafkaBrokers: []string{"b"}, JournalPath: "", VerifierTimeout: time.Second},
		{ServiceName: "test", ListenPort: 8480, KafkaBrokers: []string{"b"}, JournalPath: "e.db", VerifierTimeout: 0},
	}

	for i, cfg := range invalidConfigs {
		if err := cfg.validate(); err == nil {
			t.Errorf("validate() should fail for invalid config %d", i)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	// Test getEnv
	if err := os.Setenv("TEST_STRING", "test_value"); err != nil {
		t.Fatalf("failed to set TEST_STRING: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_STRING"); err != nil {
			t.Logf("failed to unset TEST_STRING: %v", err)
		}
	}()

	if got := getEnv("TEST_STRING", "default"); got != "test_value" {
		t.Errorf("getEnv() = %v, want %v", got, "test_value")
	}

	if got := getEnv("NONEXISTENT", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}

	// Test getEnvInt
	if err := os.Setenv("TEST_INT", "42"); err != nil {
		t.Fatalf("failed to set TEST_INT: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_INT"); err != nil {
			t.Logf("failed to unset TEST_INT: %v", err)
		}
	}()

	if got := getEnvInt("TEST_INT", 0); got != 42 {
		t.Errorf("getEnvInt() = %v, want %v", got, 42)
	}

	if got := getEnvInt("NONEXISTENT", 99); got != 99 {
		t.Errorf("getEnvInt() = %v, want %v", got, 99)
	}

	// Test getEnvBool
	if err := os.Setenv("TEST_BOOL", "true"); err != nil {
		t.Fatalf("failed to set TEST_BOOL: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_BOOL"); err != nil {
			t.Logf("failed to unset TEST_BOOL: %v", err)
		}
	}()

	if got := getEnvBool("TEST_BOOL", false); !got {
		t.Error("getEnvBool() = false, want true")
	}

	if got := getEnvBool("NONEXISTENT", true); !got {
		t.Error("getEnvBool() fallback = false, want true")
	}

	// Test getEnvDuration
	if err := os.Setenv("TEST_DURATION", "30s"); err != nil {
		t.Fatalf("failed to set TEST_DURATION: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_DURATION"); err != nil {
			t.Logf("failed to unset TEST_DURATION: %v", err)
		}
	}()

	if got := getEnvDuration("TEST_DURATION", 0); got != 30*time.Second {
		t.Errorf("getEnvDuration() = %v, want %v", got, 30*time.Second)
	}

	// Test getEnvSlice
	if err := os.Setenv("TEST_SLICE", "a, b ,c"); err != nil {
		t.Fatalf("failed to set TEST_SLICE: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_SLICE"); err != nil {
			t.Logf("failed to unset TEST_SLICE: %v", err)
		}
	}()

	got := getEnvSlice("TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("getEnvSlice() = %v, want [a b c]", got)
	}
}
