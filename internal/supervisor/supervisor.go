// Package supervisor owns the lifecycle of the external sensor process and
// forwards its standard output to an ingestion sink.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrNotRunning is returned by queries that need a live sensor process.
var ErrNotRunning = errors.New("sensor process is not running")

const (
	stopGrace   = 2 * time.Second
	sinkTimeout = 5 * time.Second
)

// Sink receives the sensor process output stream.
type Sink interface {
	Begin(ctx context.Context) error
	Feed(ctx context.Context, chunk []byte) error
	End(ctx context.Context) error
}

// Config describes how to launch the sensor process.
type Config struct {
	Command string
	Args    []string
	// Env is appended to the current environment.
	Env []string
}

// Status is a point-in-time view of the supervisor.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Supervisor starts, watches and stops a single sensor process. A process
// that exits or fails to launch is not restarted; Start must be called again.
type Supervisor struct {
	cfg  Config
	sink Sink

	mu   sync.Mutex
	proc *process
}

type process struct {
	cmd       *exec.Cmd
	pipes     []io.Closer
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Supervisor that feeds process output into sink.
func New(cfg Config, sink Sink) *Supervisor {
	return &Supervisor{
		cfg:  cfg,
		sink: sink,
	}
}

// Start launches the sensor process. It is a no-op when a process is
// already running.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		return nil
	}

	log.Printf("INFO: supervisor: starting sensor process: %s %s", s.cfg.Command, strings.Join(s.cfg.Args, " "))

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Env = append(cmd.Env, s.cfg.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("sensor stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("sensor stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		log.Printf("ERROR: supervisor: failed to start sensor process: %v", err)
		return fmt.Errorf("start sensor process: %w", err)
	}

	// Output is not read before watch runs, so Begin still precedes any data.
	beginCtx, cancelBegin := context.WithTimeout(ctx, sinkTimeout)
	err = s.sink.Begin(beginCtx)
	cancelBegin()
	if err != nil {
		cancel()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("begin sensor stream: %w", err)
	}

	p := &process{
		cmd:       cmd,
		pipes:     []io.Closer{stdout, stderr},
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.proc = p

	log.Printf("INFO: supervisor: sensor process started (pid %d)", cmd.Process.Pid)

	go s.watch(ctx, p, stdout, stderr)
	return nil
}

// Stop kills the running sensor process and waits until its output has
// been drained. It is a no-op when nothing is running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	p := s.proc
	s.proc = nil
	s.mu.Unlock()

	if p == nil {
		return
	}

	log.Printf("INFO: supervisor: stopping sensor process (pid %d)", p.cmd.Process.Pid)
	p.cancel()
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Printf("ERROR: supervisor: kill sensor process: %v", err)
	}

	// Grandchildren may inherit the output pipes and keep them open.
	select {
	case <-p.done:
	case <-time.After(stopGrace):
		for _, c := range p.pipes {
			_ = c.Close()
		}
		<-p.done
	}
}

// IsRunning reports whether a sensor process is currently alive.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Status returns the current process state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return Status{}
	}
	return Status{
		Running:   true,
		PID:       s.proc.cmd.Process.Pid,
		StartedAt: s.proc.startedAt,
	}
}

func (s *Supervisor) watch(ctx context.Context, p *process, stdout, stderr io.ReadCloser) {
	defer close(p.done)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(ctx, stdout)
	}()
	go func() {
		defer wg.Done()
		logDiagnostics(stderr)
	}()
	wg.Wait()

	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	if err != nil {
		log.Printf("INFO: supervisor: sensor process exited with code %d: %v", code, err)
	} else {
		log.Printf("INFO: supervisor: sensor process exited with code %d", code)
	}

	if err := s.sink.End(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("ERROR: supervisor: end sensor stream: %v", err)
	}

	s.mu.Lock()
	if s.proc == p {
		s.proc = nil
	}
	s.mu.Unlock()
	p.cancel()
}

// pump forwards raw stdout chunks to the sink until EOF or cancellation.
func (s *Supervisor) pump(ctx context.Context, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := s.sink.Feed(ctx, buf[:n]); ferr != nil {
				// Keep draining so the process never blocks on a full pipe.
				_, _ = io.Copy(io.Discard, r)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Printf("ERROR: supervisor: read sensor stdout: %v", err)
			}
			return
		}
	}
}

func logDiagnostics(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			log.Printf("INFO: supervisor: sensor stderr: %s", line)
		}
	}
	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}
