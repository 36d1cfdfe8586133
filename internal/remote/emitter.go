package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while repeated emission failures keep the
// circuit breaker open.
var ErrCircuitOpen = errors.New("ir emitter circuit breaker open")

// ExitError reports a nonzero exit of the emission process together with
// everything it wrote to stdout and stderr.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ir command exited with code %d: %s", e.Code, e.Output)
}

// EmitterConfig describes the emission process. Preset and temperature are
// appended to Args on every call.
type EmitterConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Emitter invokes the emission process once per request, behind a circuit
// breaker.
type Emitter struct {
	cfg     EmitterConfig
	circuit *gobreaker.CircuitBreaker
}

// NewEmitter creates an Emitter.
func NewEmitter(cfg EmitterConfig) *Emitter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ir-emitter",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("INFO: remote: circuit %s changed from %s to %s", name, from, to)
		},
	})

	return &Emitter{
		cfg:     cfg,
		circuit: cb,
	}
}

// Emit resolves the preset for s and runs the emission process with the
// preset and target temperature. It returns the combined output on a clean
// exit. Unresolvable states never start a process.
func (e *Emitter) Emit(ctx context.Context, s State) (string, error) {
	preset, err := Resolve(s.Mode, s.FanSpeed)
	if err != nil {
		return "", err
	}

	result, err := e.circuit.Execute(func() (interface{}, error) {
		return e.run(ctx, preset, s.Temperature)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return "", err
	}

	out, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from circuit breaker")
	}
	return out, nil
}

func (e *Emitter) run(ctx context.Context, preset string, temperature int) (string, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.cfg.Args...), preset, strconv.Itoa(temperature))
	log.Printf("DEBUG: remote: running %s %s", e.cfg.Command, strings.Join(args, " "))

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.cfg.Command, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{Code: exitErr.ExitCode(), Output: out.String()}
		}
		return "", fmt.Errorf("run ir command: %w", err)
	}
	return out.String(), nil
}
