package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.InputDir != "input" {
			t.Errorf("InputDir = %q, want input", cfg.InputDir)
		}
		if cfg.OutputDir != "output" {
			t.Errorf("OutputDir = %q, want output", cfg.OutputDir)
		}
		if cfg.ModelSize != "medium" {
			t.Errorf("ModelSize = %q, want medium", cfg.ModelSize)
		}
		if cfg.Language != "ja" {
			t.Errorf("Language = %q, want ja", cfg.Language)
		}
		if cfg.Backend != "cli" {
			t.Errorf("Backend = %q, want cli", cfg.Backend)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.WhisperBin != "whisper-cli" {
			t.Errorf("WhisperBin = %q, want whisper-cli", cfg.WhisperBin)
		}
		if cfg.Watch {
			t.Error("Watch = true, want false")
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"INPUT_DIR":     "/data/in",
			"MODEL_SIZE":    "small",
			"LANGUAGE_HINT": "en",
			"WATCH":         "true",
		})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.InputDir != "/data/in" {
			t.Errorf("InputDir = %q, want /data/in", cfg.InputDir)
		}
		if cfg.ModelSize != "small" {
			t.Errorf("ModelSize = %q, want small", cfg.ModelSize)
		}
		if cfg.Language != "en" {
			t.Errorf("Language = %q, want en", cfg.Language)
		}
		if !cfg.Watch {
			t.Error("Watch = false, want true")
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"INPUT_DIR":  "/data/in",
			"MODEL_SIZE": "small",
			"WATCH":      "true",
		})
		defer cleanup()

		off := false
		cfg, err := Load(Overrides{
			EnvFile:   "nonexistent.env",
			InputDir:  "/override/in",
			ModelSize: "large",
			LogLevel:  "debug",
			Watch:     &off,
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.InputDir != "/override/in" {
			t.Errorf("InputDir = %q, want /override/in", cfg.InputDir)
		}
		if cfg.ModelSize != "large" {
			t.Errorf("ModelSize = %q, want large", cfg.ModelSize)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.Watch {
			t.Error("Watch = true, want override false")
		}
	})

	t.Run("empty_overrides_use_env", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"OUTPUT_DIR": "/data/out"})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.OutputDir != "/data/out" {
			t.Errorf("OutputDir = %q, want env value", cfg.OutputDir)
		}
	})

	t.Run("dotenv_file_loaded", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envFile, []byte("LANGUAGE_HINT=de\n"), 0o644); err != nil {
			t.Fatalf("write .env: %v", err)
		}

		cfg, err := Load(Overrides{EnvFile: envFile})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Language != "de" {
			t.Errorf("Language = %q, want de from .env", cfg.Language)
		}
		os.Unsetenv("LANGUAGE_HINT") // godotenv writes into the process env
	})
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		o    Overrides
	}{
		{"bad_model", Overrides{ModelSize: "enormous"}},
		{"bad_backend", Overrides{Backend: "grpc"}},
		{"bad_log_level", Overrides{LogLevel: "loud"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.o.EnvFile = "nonexistent.env"
			if _, err := Load(tc.o); err == nil {
				t.Errorf("Load accepted %+v", tc.o)
			}
		})
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
