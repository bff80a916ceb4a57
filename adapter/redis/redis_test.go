package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pithecene-io/resdump/adapter"
	"github.com/pithecene-io/resdump/iox"
)

func sampleEvent() *adapter.DumpNormalizedEvent {
	return &adapter.DumpNormalizedEvent{
		ContractVersion: "0.1.0",
		EventType:       adapter.EventTypeDumpNormalized,
		Source:          "cqpc.txt",
		Device:          "mlx5_0",
		Kind:            "text",
		Width:           32,
		WordCount:       7,
		Digest:          "9f2c",
		Timestamp:       "2026-10-17T12:00:00Z",
		DurationMs:      3,
	}
}

func openAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	t.Cleanup(iox.CloseFunc(a))
	return a
}

// subscribe registers on channel and returns the next delivered message.
// miniredis delivers synchronously, so the reader runs before Publish.
func subscribe(mr *miniredis.Miniredis, channel string) <-chan miniredis.PubsubMessage {
	sub := mr.NewSubscriber()
	sub.Subscribe(channel)
	out := make(chan miniredis.PubsubMessage, 1)
	go func() { out <- <-sub.Messages() }()
	return out
}

func decodeEvent(t *testing.T, raw string) adapter.DumpNormalizedEvent {
	t.Helper()
	var ev adapter.DumpNormalizedEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("decode event %q: %v", raw, err)
	}
	return ev
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{}},
		{"bad url", Config{URL: "not-a-redis-url"}},
		{"negative retries", Config{URL: "redis://localhost:6379", Retries: -1}},
		{"negative stream cap", Config{URL: "redis://localhost:6379", StreamMaxLen: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Errorf("New(%+v) succeeded, want error", tt.cfg)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	mr := miniredis.RunT(t)
	a := openAdapter(t, Config{URL: "redis://" + mr.Addr()})

	if a.config.Channel != DefaultChannel {
		t.Errorf("channel = %q, want %q", a.config.Channel, DefaultChannel)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", a.config.Timeout, DefaultTimeout)
	}
}

func TestPublish_Channel(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    string
		retries int
	}{
		{"default channel", "", DefaultChannel, 0},
		{"custom channel", "lab:dumps", "lab:dumps", 0},
		{"retries configured", "", DefaultChannel, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			a := openAdapter(t, Config{URL: "redis://" + mr.Addr(), Channel: tt.channel, Retries: tt.retries})
			got := subscribe(mr, tt.want)

			if err := a.Publish(t.Context(), sampleEvent()); err != nil {
				t.Fatalf("publish: %v", err)
			}

			select {
			case msg := <-got:
				if msg.Channel != tt.want {
					t.Errorf("channel = %q, want %q", msg.Channel, tt.want)
				}
				ev := decodeEvent(t, msg.Message)
				if ev.Source != "cqpc.txt" || ev.WordCount != 7 || ev.Digest != "9f2c" {
					t.Errorf("event = %+v", ev)
				}
				if ev.EventType != adapter.EventTypeDumpNormalized {
					t.Errorf("event_type = %q", ev.EventType)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("no message delivered")
			}
		})
	}
}

func TestPublish_Stream(t *testing.T) {
	mr := miniredis.RunT(t)
	a := openAdapter(t, Config{URL: "redis://" + mr.Addr(), Stream: "resdump:events", StreamMaxLen: 100})

	first := sampleEvent()
	second := sampleEvent()
	second.Device = "mlx5_1"
	for _, ev := range []*adapter.DumpNormalizedEvent{first, second} {
		if err := a.Publish(t.Context(), ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	entries, err := a.client.XRange(t.Context(), "resdump:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("stream has %d entries, want 2", len(entries))
	}
	for i, want := range []string{"mlx5_0", "mlx5_1"} {
		raw, ok := entries[i].Values[StreamField].(string)
		if !ok {
			t.Fatalf("entry %d lacks %q: %v", i, StreamField, entries[i].Values)
		}
		if got := decodeEvent(t, raw).Device; got != want {
			t.Errorf("entry %d device = %q, want %q", i, got, want)
		}
	}
}

func TestPublish_Failures(t *testing.T) {
	deadline := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), 100*time.Millisecond)
	}
	background := func() (context.Context, context.CancelFunc) {
		return context.Background(), func() {}
	}

	tests := []struct {
		name string
		cfg  Config
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{
			name: "retries exhausted",
			cfg:  Config{URL: "redis://127.0.0.1:1", Retries: 2, Timeout: 100 * time.Millisecond, Backoff: time.Millisecond},
			ctx:  background,
		},
		{
			name: "context deadline",
			cfg:  Config{URL: "redis://127.0.0.1:1", Retries: 5, Timeout: 10 * time.Second},
			ctx:  deadline,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openAdapter(t, tt.cfg)
			ctx, cancel := tt.ctx()
			defer cancel()
			if err := a.Publish(ctx, sampleEvent()); err == nil {
				t.Fatal("publish succeeded against an unreachable server")
			}
		})
	}
}

func TestPublish_AfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Publish(t.Context(), sampleEvent()); err == nil {
		t.Fatal("publish after close succeeded")
	}
}
