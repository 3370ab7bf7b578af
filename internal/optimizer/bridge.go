// Package optimizer bridges to the external routing optimizer: one
// short-lived worker process per call, JSON over stdin/stdout.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/dto"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
)

// Bridge spawns the optimizer worker. The worker is stateless and disposable;
// there is no process pool.
type Bridge struct {
	bin     string
	args    []string
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a bridge around the configured worker command. A zero timeout
// disables the deadline.
func New(bin string, args []string, timeout time.Duration, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{bin: bin, args: args, timeout: timeout, logger: logger}
}

// Invoke runs one worker: writes the full JSON payload to its stdin, closes
// the stream, buffers stdout until exit, and parses the result. Each failure
// mode maps to its own typed error; a deadline hit kills the child.
func (b *Bridge) Invoke(ctx context.Context, payload dto.OptimizerRequest) (*dto.OptimizerResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "marshal optimizer payload")
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, b.bin, b.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOptimizerSpawn.Code, appErrors.ErrOptimizerSpawn.Status, appErrors.ErrOptimizerSpawn.Message)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOptimizerSpawn.Code, appErrors.ErrOptimizerSpawn.Status,
			fmt.Sprintf("optimizer worker could not be started: %v", err))
	}

	_, writeErr := stdin.Write(raw)
	closeErr := stdin.Close()

	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrOptimizerTimeout.Code, appErrors.ErrOptimizerTimeout.Status,
			fmt.Sprintf("optimizer worker exceeded its deadline after %s", elapsed.Round(time.Millisecond)))
	}

	if writeErr != nil || closeErr != nil {
		deliverErr := writeErr
		if deliverErr == nil {
			deliverErr = closeErr
		}
		return nil, appErrors.Wrap(deliverErr, appErrors.ErrOptimizerWrite.Code, appErrors.ErrOptimizerWrite.Status,
			fmt.Sprintf("failed to deliver payload to optimizer worker: %v", deliverErr))
	}

	if waitErr != nil {
		return nil, waitFailure(waitErr, stderr.String())
	}

	var result dto.OptimizerResponse
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOptimizerOutput.Code, appErrors.ErrOptimizerOutput.Status,
			fmt.Sprintf("optimizer worker produced unparseable output: %q", truncate(stdout.String(), 512)))
	}

	b.logger.Debug("optimizer worker completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("cleaners", len(result.TimelineByCleaner)))
	return &result, nil
}

// waitFailure maps a Wait error onto a typed error. An ExitError means the
// worker ran and exited nonzero; anything else means the process started but
// Wait failed on its own I/O, which is not a spawn failure and must not read
// like one.
func waitFailure(waitErr error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", exitErr.ExitCode())
		}
		return appErrors.Wrap(waitErr, appErrors.ErrOptimizerExit.Code, appErrors.ErrOptimizerExit.Status,
			fmt.Sprintf("optimizer worker exited with an error: %s", detail))
	}
	return appErrors.Wrap(waitErr, appErrors.ErrOptimizerSpawn.Code, appErrors.ErrOptimizerSpawn.Status,
		fmt.Sprintf("optimizer worker failed: %v", waitErr))
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
