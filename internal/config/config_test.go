package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/engine"
)

var envKeys = []string{
	"C4_SERVER", "C4_MODE", "C4_GAME_ID", "C4_ROLLOUTS", "C4_WORKERS", "C4_SEED",
	"C4_DIAL_TIMEOUT_SEC", "REDIS_URL", "NOTIFY_URL", "MESSAGES_DIR", "BOARD_PNG_PATH",
	"COLOR_OUTPUT", "C4_SHOW_BOARD",
}

// isolateEnv clears the config variables and runs from an empty directory so
// a stray .env cannot leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RolloutsPerColumn != engine.DefaultRolloutsPerColumn {
		t.Fatalf("rollouts=%d", cfg.RolloutsPerColumn)
	}
	if cfg.Workers < 1 || cfg.DialTimeout != 10*time.Second || cfg.HasSeed {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Server != "" || cfg.Mode != "" {
		t.Fatalf("expected empty connection details, got %+v", cfg)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("C4_SERVER", "example.com:3000")
	t.Setenv("C4_MODE", "j")
	t.Setenv("C4_GAME_ID", "abc")
	t.Setenv("C4_ROLLOUTS", "200")
	t.Setenv("C4_SEED", "-42")
	t.Setenv("C4_DIAL_TIMEOUT_SEC", "4")
	t.Setenv("COLOR_OUTPUT", "true")
	t.Setenv("C4_SHOW_BOARD", "1")
	t.Setenv("C4_WORKERS", "zero")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "example.com:3000" || cfg.Mode != ModeJoin || cfg.GameID != "abc" || cfg.Host() {
		t.Fatalf("connection=%+v", cfg)
	}
	if cfg.RolloutsPerColumn != 200 || !cfg.HasSeed || cfg.Seed != -42 || cfg.DialTimeout != 4*time.Second {
		t.Fatalf("engine=%+v", cfg)
	}
	if cfg.Workers < 1 {
		t.Fatalf("invalid C4_WORKERS must keep the default, got %d", cfg.Workers)
	}
	if !cfg.ColorOutput || !cfg.ShowBoard {
		t.Fatalf("output flags=%+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolateEnv(t)
	os.Unsetenv("C4_SERVER")
	os.Unsetenv("C4_MODE")
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte("C4_SERVER=dotenv:9000\nC4_MODE=create\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "dotenv:9000" || !cfg.Host() {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("C4_MODE", "x")
	if _, err := Load(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}

	t.Setenv("C4_MODE", "")
	t.Setenv("C4_SEED", "abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected seed parse error")
	}
}

func TestPrompt_FillsMissing(t *testing.T) {
	cfg := &AppConfig{}
	var out bytes.Buffer
	in := strings.NewReader("localhost:3000\nj\n  game-7 \n")

	if err := cfg.Prompt(in, &out); err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if cfg.Server != "localhost:3000" || cfg.Mode != ModeJoin || cfg.GameID != "game-7" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if !strings.Contains(out.String(), "Join game or create game? (j/c): ") {
		t.Fatalf("prompts=%q", out.String())
	}
}

func TestPrompt_CreateSkipsGameID(t *testing.T) {
	cfg := &AppConfig{Server: "preset:1"}
	var out bytes.Buffer
	if err := cfg.Prompt(strings.NewReader("c"), &out); err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if !cfg.Host() || cfg.Server != "preset:1" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if strings.Contains(out.String(), "Server IP") || strings.Contains(out.String(), "Game ID") {
		t.Fatalf("unexpected prompts=%q", out.String())
	}
}

func TestPrompt_InvalidChoice(t *testing.T) {
	cfg := &AppConfig{Server: "s"}
	if err := cfg.Prompt(strings.NewReader("x\n"), &bytes.Buffer{}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestPrompt_EOF(t *testing.T) {
	cfg := &AppConfig{}
	if err := cfg.Prompt(strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestValidate(t *testing.T) {
	if err := (&AppConfig{Mode: ModeCreate}).Validate(); !errors.Is(err, ErrMissingServer) {
		t.Fatalf("expected ErrMissingServer, got %v", err)
	}
	if err := (&AppConfig{Server: "s"}).Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if err := (&AppConfig{Server: "s", Mode: ModeJoin}).Validate(); err != nil {
		t.Fatalf("join without game id is allowed: %v", err)
	}
}
