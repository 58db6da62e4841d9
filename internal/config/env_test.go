package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile_missing(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("missing file should return nil: %v", err)
	}
}

func TestLoadEnvFile_setsEnv(t *testing.T) {
	t.Setenv("YTLIVE_TEST_FOO", "")
	os.Unsetenv("YTLIVE_TEST_FOO")
	t.Setenv("YTLIVE_TEST_BAZ", "")
	os.Unsetenv("YTLIVE_TEST_BAZ")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("YTLIVE_TEST_FOO=bar\n# comment\nexport YTLIVE_TEST_BAZ=quux\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("YTLIVE_TEST_FOO") != "bar" {
		t.Errorf("YTLIVE_TEST_FOO = %q", os.Getenv("YTLIVE_TEST_FOO"))
	}
	if os.Getenv("YTLIVE_TEST_BAZ") != "quux" {
		t.Errorf("YTLIVE_TEST_BAZ = %q", os.Getenv("YTLIVE_TEST_BAZ"))
	}
}

func TestLoadEnvFile_unquote(t *testing.T) {
	t.Setenv("YTLIVE_TEST_X", "")
	os.Unsetenv("YTLIVE_TEST_X")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(`YTLIVE_TEST_X="hello world"`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("YTLIVE_TEST_X") != "hello world" {
		t.Errorf("YTLIVE_TEST_X = %q", os.Getenv("YTLIVE_TEST_X"))
	}
}

func TestLoadEnvFile_environmentWins(t *testing.T) {
	t.Setenv("YTLIVE_TEST_KEEP", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("YTLIVE_TEST_KEEP=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("YTLIVE_TEST_KEEP"); got != "from-env" {
		t.Errorf("YTLIVE_TEST_KEEP = %q, want from-env", got)
	}
}
