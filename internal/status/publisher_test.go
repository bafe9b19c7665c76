package status

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
	"github.com/redis/go-redis/v9"
)

func newTestPublisher(t *testing.T, opts ...Option) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPublisher(rdb, opts...), mr
}

func activeSnapshot(id string, moves int) session.Snapshot {
	return session.Snapshot{
		SessionID:  id,
		GameID:     "g-1",
		Role:       "host",
		LocalPiece: "A",
		State:      session.StateActive,
		Moves:      moves,
		LastColumn: 3,
		LastPiece:  "A",
		Board:      []string{".......", ".......", ".......", ".......", ".......", "...A..."},
		UpdatedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestPublish_StoresSnapshotWithTTL(t *testing.T) {
	p, mr := newTestPublisher(t, WithTTL(10*time.Minute))
	ctx := context.Background()

	if err := p.Publish(ctx, activeSnapshot("s-1", 1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ttl := mr.TTL(keySession("s-1")); ttl != 10*time.Minute {
		t.Fatalf("ttl=%v", ttl)
	}

	got, err := p.Load(ctx, "s-1")
	if err != nil || got == nil {
		t.Fatalf("Load: %v %v", got, err)
	}
	if got.Moves != 1 || got.LastColumn != 3 || got.Board[5] != "...A..." || got.State != session.StateActive {
		t.Fatalf("snapshot=%+v", got)
	}

	ids, err := p.Active(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "s-1" {
		t.Fatalf("active=%v err=%v", ids, err)
	}
}

func TestPublish_EndedLeavesActiveIndex(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()

	if err := p.Publish(ctx, activeSnapshot("s-2", 4)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ended := activeSnapshot("s-2", 4)
	ended.State = session.StateEnded
	ended.Result = protocol.ResultWin
	if err := p.Publish(ctx, ended); err != nil {
		t.Fatalf("Publish ended: %v", err)
	}

	ids, _ := p.Active(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected empty active index, got %v", ids)
	}
	got, _ := p.Load(ctx, "s-2")
	if got == nil || got.Result != protocol.ResultWin {
		t.Fatalf("snapshot=%+v", got)
	}
}

func TestPublish_AnnouncesUpdate(t *testing.T) {
	p, mr := newTestPublisher(t)
	ctx := context.Background()

	subClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = subClient.Close() })
	sub := subClient.Subscribe(ctx, UpdatesChannel)
	t.Cleanup(func() { _ = sub.Close() })
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := p.Publish(ctx, activeSnapshot("s-3", 2)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var snap session.Snapshot
		if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if snap.SessionID != "s-3" || snap.Moves != 2 {
			t.Fatalf("snapshot=%+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}
}

func TestPublish_RequiresSessionID(t *testing.T) {
	p, _ := newTestPublisher(t)
	if err := p.Publish(context.Background(), session.Snapshot{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_Missing(t *testing.T) {
	p, _ := newTestPublisher(t)
	got, err := p.Load(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("Load missing=%v err=%v", got, err)
	}
}

func TestObserve_ToleratesRedisOutage(t *testing.T) {
	p, mr := newTestPublisher(t)
	mr.Close()
	// must return without panicking
	p.Observe(context.Background(), activeSnapshot("s-4", 1))
}

func TestNewPublisherFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	p, err := NewPublisherFromURL(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewPublisherFromURL: %v", err)
	}
	defer p.Close()
	if err := p.Publish(context.Background(), activeSnapshot("s-5", 1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !mr.Exists(keySession("s-5")) {
		t.Fatal("key not written")
	}

	if _, err := NewPublisherFromURL(context.Background(), "not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}
