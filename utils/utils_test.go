package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	boom := errors.New("boom")
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "fetch failed after 2 attempts") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestRetrySingleAttemptReturnsRawError(t *testing.T) {
	boom := errors.New("boom")
	for _, attempts := range []int{0, 1} {
		r := &RetryConfig{MaxAttempts: attempts}
		calls := 0
		err := r.Do(context.Background(), "op", func(ctx context.Context) error {
			calls++
			return boom
		})
		if err != boom {
			t.Errorf("MaxAttempts=%d: got %v, want the raw error", attempts, err)
		}
		if calls != 1 {
			t.Errorf("MaxAttempts=%d: calls got %d, want 1", attempts, calls)
		}
	}
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}
	calls := 0

	start := time.Now()
	err := r.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("Do should not wait out the back-off after cancellation")
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")

	l.Info("[test] hidden %d", 1)
	l.Warn("[test] shown %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "warn" || entry["message"] != "[test] shown 2" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "loud")
	l.Debug("no")
	l.Info("yes")
	if strings.Contains(buf.String(), `"no"`) || !strings.Contains(buf.String(), `"yes"`) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
