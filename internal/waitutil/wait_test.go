package waitutil

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitReady_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     WaitReadyConfig
		wantMsg string
	}{
		"zero interval": {
			cfg:     WaitReadyConfig{Interval: 0, Timeout: 5 * time.Second, Name: "coordinator"},
			wantMsg: "interval must be positive",
		},
		"negative interval": {
			cfg:     WaitReadyConfig{Interval: -time.Second, Timeout: 5 * time.Second, Name: "coordinator"},
			wantMsg: "interval must be positive",
		},
		"zero timeout": {
			cfg:     WaitReadyConfig{Interval: 100 * time.Millisecond, Timeout: 0, Name: "coordinator"},
			wantMsg: "timeout must be positive",
		},
		"empty name": {
			cfg:     WaitReadyConfig{Interval: 100 * time.Millisecond, Timeout: 5 * time.Second},
			wantMsg: "name must not be empty",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := WaitReady(context.Background(), tc.cfg, func(_ context.Context, _ int) (bool, error) {
				t.Fatal("check should not be called with invalid config")
				return false, nil
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("unexpected error message: %v", err)
			}
		})
	}
}

func TestWaitReady_ReadyFirstAttempt(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "coordinator",
		Port:     12345,
	}, func(_ context.Context, _ int) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitReady_ReadyAfterRetries(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "coordinator",
	}, func(_ context.Context, attempt int) (bool, error) {
		return attempt >= 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitReady_FatalCheckError(t *testing.T) {
	t.Parallel()

	fatal := errors.New("bad listener")
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "coordinator",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal check error, got: %v", err)
	}
}

func TestWaitReady_ComponentClosed(t *testing.T) {
	t.Parallel()

	// Pre-close the channel to simulate a component that already shut down.
	closed := make(chan struct{})
	close(closed)

	start := time.Now()
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: 100 * time.Millisecond,
		Timeout:  10 * time.Second,
		Name:     "coordinator",
		Port:     12345,
		Closed:   closed,
	}, func(_ context.Context, _ int) (bool, error) {
		// Never reached because the closed check fires first.
		t.Fatal("readiness check should not have been called")
		return false, nil
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrComponentClosed) {
		t.Fatalf("expected ErrComponentClosed, got: %v", err)
	}
	// The function should return almost immediately, well under 1 second.
	if elapsed > time.Second {
		t.Fatalf("expected fast abort, took %v", elapsed)
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  30 * time.Millisecond,
		Name:     "coordinator",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, nil
	})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}
