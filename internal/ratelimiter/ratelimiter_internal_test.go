package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestGetDelay(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		chatID   int64
		lastSent time.Time
		wantZero bool
	}{
		{
			"Private chat - no delay needed",
			123456789,
			now.Add(-2 * time.Second),
			true,
		},
		{
			"Private chat - delay needed",
			123456789,
			now.Add(-500 * time.Millisecond),
			false,
		},
		{
			"Group chat - no delay needed",
			-123456789,
			now.Add(-4 * time.Second),
			true,
		},
		{
			"Group chat - delay needed",
			-123456789,
			now.Add(-1 * time.Second),
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getDelay(test.chatID, test.lastSent)

			if test.wantZero && got > 0 {
				t.Errorf("Expected zero delay, got %v", got)
			}

			if !test.wantZero && got <= 0 {
				t.Errorf("Expected positive delay, got %v", got)
			}
		})
	}
}

func TestGetRate(t *testing.T) {
	if got := getRate(1); got != privateChatRate {
		t.Errorf("Expected %v rate, got %v", privateChatRate, got)
	}

	if got := getRate(-1); got != groupChatRate {
		t.Errorf("Expected %v rate, got %v", groupChatRate, got)
	}
}

func TestDoRunsCallAndReturnsError(t *testing.T) {
	rl := New(slog.Default())
	defer rl.Stop()

	wantErr := errors.New("send failed")
	calls := 0

	err := rl.Do(context.Background(), 1, func(_ context.Context) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected call error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestDoSpacesCallsPerChat(t *testing.T) {
	rl := New(slog.Default())
	defer rl.Stop()

	ctx := context.Background()
	noop := func(_ context.Context) error { return nil }

	if err := rl.Do(ctx, 7, noop); err != nil {
		t.Fatalf("first call: %v", err)
	}

	start := time.Now()
	if err := rl.Do(ctx, 7, noop); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if elapsed := time.Since(start); elapsed < privateChatRate/2 {
		t.Fatalf("expected second call to be delayed, took %v", elapsed)
	}
}

func TestDoAfterStopFails(t *testing.T) {
	rl := New(slog.Default())
	rl.Stop()

	err := rl.Do(context.Background(), 1, func(_ context.Context) error {
		t.Error("call must not run after stop")
		return nil
	})

	if err == nil {
		t.Fatalf("expected error after stop")
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.lastSent)
}

func TestPruneDropsOnlyElapsedChats(t *testing.T) {
	rl := New(slog.Default())
	defer rl.Stop()

	now := time.Now()

	rl.mu.Lock()
	rl.lastSent[1] = now.Add(-2 * time.Second)
	rl.lastSent[2] = now
	rl.lastSent[-3] = now.Add(-2 * time.Second)
	rl.lastSent[-4] = now.Add(-time.Minute)
	rl.mu.Unlock()

	if pruned := rl.Prune(); pruned != 2 {
		t.Fatalf("expected two pruned chats, got %d", pruned)
	}

	rl.mu.Lock()
	_, keptPrivate := rl.lastSent[2]
	_, keptGroup := rl.lastSent[-3]
	rl.mu.Unlock()

	if !keptPrivate || !keptGroup {
		t.Fatalf("expected chats still within their spacing to be kept")
	}
	if got := rl.tracked(); got != 2 {
		t.Fatalf("expected two tracked chats, got %d", got)
	}
}

func TestPruneAfterCallsEmptiesTracking(t *testing.T) {
	rl := New(slog.Default())
	defer rl.Stop()

	noop := func(_ context.Context) error { return nil }
	for chatID := int64(0); chatID < 5; chatID++ {
		if err := rl.Do(context.Background(), chatID+1, noop); err != nil {
			t.Fatalf("call for chat %d: %v", chatID+1, err)
		}
	}

	if got := rl.tracked(); got != 5 {
		t.Fatalf("expected five tracked chats, got %d", got)
	}

	time.Sleep(privateChatRate + 100*time.Millisecond)

	if pruned := rl.Prune(); pruned != 5 {
		t.Fatalf("expected all chats pruned, got %d", pruned)
	}
	if got := rl.tracked(); got != 0 {
		t.Fatalf("expected no tracked chats, got %d", got)
	}
}
