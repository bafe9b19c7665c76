package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/status"
	"github.com/park285/connect4-montecarlo-bot/internal/wsconn"
)

// c4check probes the game server and the optional Redis status store.
func main() {
	server := os.Getenv("C4_SERVER")
	redisURL := os.Getenv("REDIS_URL")

	if server == "" {
		log.Fatal("C4_SERVER is required")
	}

	if redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pub, err := status.NewPublisherFromURL(ctx, redisURL)
		if err != nil {
			log.Printf("redis error: %v", err)
		} else {
			ids, err := pub.Active(ctx)
			if err != nil {
				log.Printf("redis active sessions error: %v", err)
			} else {
				log.Printf("redis ok: active sessions=%d", len(ids))
				for _, id := range ids {
					if snap, err := pub.Load(ctx, id); err == nil && snap != nil {
						log.Printf("  %s role=%s moves=%d state=%s", id, snap.Role, snap.Moves, snap.State)
					}
				}
			}
			_ = pub.Close()
		}
		cancel()
	}

	url, err := protocol.CreateURL(server)
	if err != nil {
		log.Fatalf("server address: %v", err)
	}

	ws := wsconn.New(url, wsconn.WithDialTimeout(10*time.Second))
	ws.OnStateChange(func(state wsconn.State) {
		log.Printf("WS state: %s", state)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window; a fresh /create usually answers with the game id
	rctx, rcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer rcancel()
	for {
		raw, err := ws.Read(rctx)
		if err != nil {
			break
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			fmt.Printf("WS msg malformed=%q err=%v\n", raw, err)
			continue
		}
		fmt.Printf("WS msg %T text=%q\n", msg, raw)
	}

	_ = ws.Close(context.Background())
}
