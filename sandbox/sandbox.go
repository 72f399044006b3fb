// Package sandbox is the Sandbox Runner (C2): compiling a submission to a
// native binary and executing that binary against one test inside an
// isolated environment under a CPU-time budget.
package sandbox

import (
	"context"
	"os/exec"

	"github.com/natsukagami/kjudge-core/models"
)

// Job is one test execution request handed to a Backend.
type Job struct {
	Input          string
	ExpectedOutput string
	ExecutablePath string
	TimeLimitMs    int
	MemoryLimitKB  int
	SlotID         int
}

// Result is the outcome of executing one Job.
type Result struct {
	Verdict   models.Verdict
	ElapsedMs int
}

// Backend executes one test and classifies its outcome into a Verdict.
// Two backends exist: the sandboxed isolate-based one (preferred) and an
// unsandboxed fallback (§4.2).
type Backend interface {
	Execute(ctx context.Context, job Job) (Result, error)
}

// ProbeIsolate detects whether the `isolate` sandbox binary is usable by
// invoking `isolate --version`. A zero exit means the sandboxed backend can
// be selected; any other outcome, including the binary being entirely
// absent from PATH, means the caller should fall back and emit a startup
// warning (§6).
func ProbeIsolate(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "isolate", "--version")
	return cmd.Run() == nil
}

// NewBackend selects the sandboxed backend when isolate is usable, and the
// unsandboxed fallback otherwise. tempDir holds compiled binaries and
// isolate's per-slot meta files (temp/meta<slot_id>.txt per §6).
func NewBackend(ctx context.Context, tempDir string) Backend {
	if ProbeIsolate(ctx) {
		return &IsolateBackend{TempDir: tempDir}
	}
	return &UnsandboxedBackend{}
}
