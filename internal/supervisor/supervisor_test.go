package supervisor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type bufferSink struct {
	mu     sync.Mutex
	begins int
	ends   int
	out    strings.Builder
}

func (b *bufferSink) Begin(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.begins++
	return nil
}

func (b *bufferSink) Feed(ctx context.Context, chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Write(chunk)
	return nil
}

func (b *bufferSink) End(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends++
	return nil
}

func (b *bufferSink) snapshot() (string, int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String(), b.begins, b.ends
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSupervisorForwardsOutputAndDetectsExit(t *testing.T) {
	sink := &bufferSink{}
	s := New(Config{
		Command: "/bin/sh",
		Args:    []string{"-c", `echo "temp=21.0 humidity=40.0"; echo "diagnostic" >&2; printf "temp=22"`},
	}, sink)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool { return !s.IsRunning() })

	out, begins, ends := sink.snapshot()
	if out != "temp=21.0 humidity=40.0\ntemp=22" {
		t.Errorf("forwarded output: got %q", out)
	}
	if begins != 1 || ends != 1 {
		t.Errorf("stream markers: got begins=%d ends=%d, want 1 and 1", begins, ends)
	}
	if st := s.Status(); st.Running {
		t.Errorf("Status after exit: %+v", st)
	}
}

func TestSupervisorStartIsIdempotent(t *testing.T) {
	sink := &bufferSink{}
	s := New(Config{Command: "/bin/sh", Args: []string{"-c", "exec sleep 30"}}, sink)
	defer s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	pid := s.Status().PID

	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := s.Status().PID; got != pid {
		t.Errorf("second Start spawned a new process: pid %d, want %d", got, pid)
	}
	if _, begins, _ := sink.snapshot(); begins != 1 {
		t.Errorf("begins: got %d, want 1", begins)
	}
}

func TestSupervisorStop(t *testing.T) {
	sink := &bufferSink{}
	s := New(Config{Command: "/bin/sh", Args: []string{"-c", "exec sleep 30"}}, sink)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected process to be running")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected process to be stopped")
	}

	// Stopping twice is harmless.
	s.Stop()
}

func TestSupervisorLaunchFailure(t *testing.T) {
	sink := &bufferSink{}
	s := New(Config{Command: "/nonexistent/sensor-reader"}, sink)

	if err := s.Start(); err == nil {
		t.Fatal("expected launch failure")
	}
	if s.IsRunning() {
		t.Error("expected absent state after launch failure")
	}
	if _, begins, _ := sink.snapshot(); begins != 0 {
		t.Errorf("begins after launch failure: got %d, want 0", begins)
	}
}

func TestSupervisorRestartAfterExit(t *testing.T) {
	sink := &bufferSink{}
	s := New(Config{Command: "/bin/sh", Args: []string{"-c", "echo run"}}, sink)

	for i := 0; i < 2; i++ {
		if err := s.Start(); err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
		waitFor(t, func() bool { return !s.IsRunning() })
	}

	out, begins, _ := sink.snapshot()
	if out != "run\nrun\n" || begins != 2 {
		t.Errorf("after restart: out=%q begins=%d", out, begins)
	}
}
