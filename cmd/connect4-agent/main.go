package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	appcfg "github.com/park285/connect4-montecarlo-bot/internal/config"
	"github.com/park285/connect4-montecarlo-bot/internal/engine"
	"github.com/park285/connect4-montecarlo-bot/internal/msgcat"
	"github.com/park285/connect4-montecarlo-bot/internal/notify"
	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/render"
	"github.com/park285/connect4-montecarlo-bot/internal/report"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
	"github.com/park285/connect4-montecarlo-bot/internal/status"
	"github.com/park285/connect4-montecarlo-bot/internal/wsconn"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Prompt(os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, appcfg.ErrInvalidMode) {
			fmt.Println("Invalid choice!")
			os.Exit(2)
		}
		log.Fatalf("prompt error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	code := run(cfg)
	obslog.Sync()
	os.Exit(code)
}

func run(cfg *appcfg.AppConfig) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := obslog.L()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Error("msgcat_init_failed", zap.Error(err))
		return 1
	}
	console := report.NewConsole(os.Stdout, cat, report.WithColor(cfg.ColorOutput), report.WithBoard(cfg.ShowBoard))

	url, err := endpoint(cfg)
	if err != nil {
		logger.Error("endpoint_invalid", zap.Error(err))
		return 1
	}

	sessCfg := session.Config{Host: cfg.Host(), GameID: cfg.GameID}
	sessionID := uuid.NewString()
	renderer := render.New()

	reporters := []session.Reporter{console}
	observers := []session.Observer{console}
	if cfg.NotifyURL != "" {
		n, err := notify.New(cfg.NotifyURL,
			notify.WithMeta(notify.Meta{SessionID: sessionID, GameID: cfg.GameID, Role: sessCfg.Role()}),
			notify.WithImage(renderer.PNG),
		)
		if err != nil {
			logger.Warn("notify_disabled", zap.Error(err))
		} else {
			reporters = append(reporters, n)
		}
	}
	if cfg.RedisURL != "" {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pub, err := status.NewPublisherFromURL(pctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn("status_disabled", zap.Error(err))
		} else {
			defer pub.Close()
			observers = append(observers, pub)
		}
	}

	selOpts := []engine.Option{
		engine.WithRollouts(cfg.RolloutsPerColumn),
		engine.WithWorkers(cfg.Workers),
	}
	if cfg.HasSeed {
		selOpts = append(selOpts, engine.WithSeed(cfg.Seed))
	}
	worker := engine.NewWorker(engine.NewSelector(selOpts...))

	console.Announce("game.connecting", map[string]any{"URL": url, "Role": sessCfg.Role()}, "Connecting to "+url)
	ws := wsconn.New(url, wsconn.WithDialTimeout(cfg.DialTimeout))
	ws.OnStateChange(func(state wsconn.State) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	if err := ws.Connect(ctx); err != nil {
		logger.Error("ws_connect_failed", zap.Error(err))
		return 1
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = ws.Close(cctx)
	}()
	if sessCfg.Host {
		console.Announce("game.waiting", nil, "Waiting for an opponent to join.")
	}

	sess := session.New(sessCfg, worker,
		session.WithID(sessionID),
		session.WithReporter(report.Multi(reporters...)),
		session.WithObserver(report.MultiObserver(observers...)),
	)
	result, runErr := sess.Run(ctx, ws)

	if cfg.BoardPNGPath != "" {
		if err := writeBoardPNG(context.Background(), renderer, sess, cfg.BoardPNGPath); err != nil {
			logger.Warn("board_png_failed", zap.String("path", cfg.BoardPNGPath), zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("session_failed", zap.String("session_id", sess.ID()), zap.Error(runErr))
		return 1
	}
	logger.Info("agent_done", zap.String("session_id", sess.ID()), zap.String("result", string(result)), zap.Int("moves", sess.Moves()))
	return 0
}

func endpoint(cfg *appcfg.AppConfig) (string, error) {
	if cfg.Host() {
		return protocol.CreateURL(cfg.Server)
	}
	return protocol.JoinURL(cfg.Server, cfg.GameID)
}

func writeBoardPNG(ctx context.Context, r *render.Renderer, sess *session.Session, path string) error {
	data, err := r.RenderPNG(ctx, sess.Board(), render.Options{LastColumn: sess.Snapshot().LastColumn})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
