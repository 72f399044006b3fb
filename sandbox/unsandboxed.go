package sandbox

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/natsukagami/kjudge-core/models"
	"golang.org/x/sys/unix"
)

// UnsandboxedBackend is the fallback selected only when the isolate binary
// is unavailable (§4.2). It trades isolation for availability: the binary
// runs directly, bounded only by a wall-clock timeout.
type UnsandboxedBackend struct{}

// Execute spawns job.ExecutablePath directly, pipes job.Input to its
// stdin, and waits up to job.TimeLimitMs of wall-clock time. The child runs
// in its own process group so a timeout can be turned into a group-wide
// kill (unix.Kill with a negative pid) instead of leaving orphaned
// grandchildren behind — exec.Cmd's own context cancellation only signals
// the direct child, which the original Rust runner's process.abort() did
// not need to worry about since it never forked further.
func (UnsandboxedBackend) Execute(ctx context.Context, job Job) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(job.TimeLimitMs)*time.Millisecond)
	defer cancel()

	cmd := exec.Command(job.ExecutablePath)
	cmd.Stdin = strings.NewReader(job.Input)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	start := time.Now()
	err := cmd.Start()
	if err != nil {
		return Result{}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-runCtx.Done():
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		<-done
		return Result{Verdict: models.TimeLimitExceeded, ElapsedMs: job.TimeLimitMs}, nil
	case err = <-done:
	}
	elapsed := time.Since(start)

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return Result{Verdict: models.RuntimeError, ElapsedMs: int(elapsed.Milliseconds())}, nil
		}
		return Result{}, err
	}

	if tokensEqual(stdout.String(), job.ExpectedOutput) {
		return Result{Verdict: models.Accepted, ElapsedMs: int(elapsed.Milliseconds())}, nil
	}
	return Result{Verdict: models.WrongAnswer, ElapsedMs: int(elapsed.Milliseconds())}, nil
}
