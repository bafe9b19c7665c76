package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/connect4-montecarlo-bot/internal/engine"
)

var (
	ErrMissingServer = errors.New("C4_SERVER is required")
	ErrInvalidMode   = errors.New("invalid choice: mode must be create (c) or join (j)")
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeJoin   Mode = "join"
)

// ParseMode accepts create/join and their one-letter forms. Anything else yields "".
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "create":
		return ModeCreate
	case "j", "join":
		return ModeJoin
	default:
		return ""
	}
}

type AppConfig struct {
	Server string
	Mode   Mode
	GameID string

	RolloutsPerColumn int
	Workers           int
	Seed              int64
	HasSeed           bool

	DialTimeout time.Duration

	RedisURL     string
	NotifyURL    string
	MessagesDir  string
	BoardPNGPath string

	ColorOutput bool
	ShowBoard   bool
}

func (c *AppConfig) Host() bool { return c.Mode == ModeCreate }

// Load reads the environment after applying an optional .env file.
// Missing connection details are left empty for Prompt.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		RolloutsPerColumn: engine.DefaultRolloutsPerColumn,
		Workers:           runtime.NumCPU(),
		DialTimeout:       10 * time.Second,
	}

	cfg.Server = strings.TrimSpace(os.Getenv("C4_SERVER"))
	cfg.GameID = strings.TrimSpace(os.Getenv("C4_GAME_ID"))
	if v := strings.TrimSpace(os.Getenv("C4_MODE")); v != "" {
		cfg.Mode = ParseMode(v)
		if cfg.Mode == "" {
			return nil, fmt.Errorf("C4_MODE=%q: %w", v, ErrInvalidMode)
		}
	}

	if v := strings.TrimSpace(os.Getenv("C4_ROLLOUTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RolloutsPerColumn = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("C4_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("C4_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("C4_SEED: %w", err)
		}
		cfg.Seed, cfg.HasSeed = n, true
	}
	if v := strings.TrimSpace(os.Getenv("C4_DIAL_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DialTimeout = time.Duration(n) * time.Second
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.NotifyURL = strings.TrimSpace(os.Getenv("NOTIFY_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.BoardPNGPath = strings.TrimSpace(os.Getenv("BOARD_PNG_PATH"))

	if v := strings.TrimSpace(os.Getenv("COLOR_OUTPUT")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ColorOutput = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("C4_SHOW_BOARD")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ShowBoard = b
		}
	}

	return cfg, nil
}

// Prompt asks for whatever connection detail the environment left empty.
// The game id is only asked for when joining.
func (c *AppConfig) Prompt(in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	ask := func(q string) (string, error) {
		fmt.Fprint(out, q)
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	if c.Server == "" {
		v, err := ask("Server IP (e.g. localhost:3000): ")
		if err != nil {
			return err
		}
		c.Server = v
	}
	if c.Mode == "" {
		v, err := ask("Join game or create game? (j/c): ")
		if err != nil {
			return err
		}
		c.Mode = ParseMode(v)
		if c.Mode == "" {
			return ErrInvalidMode
		}
	}
	if c.Mode == ModeJoin && c.GameID == "" {
		v, err := ask("Game ID: ")
		if err != nil {
			return err
		}
		c.GameID = v
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Server == "" {
		return ErrMissingServer
	}
	if c.Mode != ModeCreate && c.Mode != ModeJoin {
		return ErrInvalidMode
	}
	return nil
}
