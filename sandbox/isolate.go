package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natsukagami/kjudge-core/models"
	"github.com/pkg/errors"
)

// perFileSizeCapKB is the sandbox's per-file size cap (§4.2).
const perFileSizeCapKB = 1024

// IsolateBackend executes tests inside the `isolate` sandbox. It requires
// mutually exclusive use of its SlotID for the duration of one execution;
// the Worker Pool guarantees this by handing each worker a unique slot
// (§4.2, §4.3).
type IsolateBackend struct {
	TempDir string // holds temp/meta<slot_id>.txt
}

func (b *IsolateBackend) boxID(slot int) string { return strconv.Itoa(slot) }

func (b *IsolateBackend) metaPath(slot int) string {
	return filepath.Join(b.TempDir, fmt.Sprintf("meta%d.txt", slot))
}

// Execute runs one test inside the sandbox slot named by job.SlotID.
func (b *IsolateBackend) Execute(ctx context.Context, job Job) (Result, error) {
	box := b.boxID(job.SlotID)

	// (a) clean any prior state for this slot.
	_ = exec.CommandContext(ctx, "isolate", "--box-id", box, "--cleanup").Run()

	// (b) initialise a fresh sandbox.
	initOut, err := exec.CommandContext(ctx, "isolate", "--box-id", box, "--init").Output()
	if err != nil {
		return Result{}, errors.Wrap(err, "isolate init")
	}
	boxDir := filepath.Join(strings.TrimSpace(string(initOut)), "box")

	// (c) copy the executable into the sandbox box directory.
	if err := copyExecutable(job.ExecutablePath, filepath.Join(boxDir, "program")); err != nil {
		_ = exec.CommandContext(ctx, "isolate", "--box-id", box, "--cleanup").Run()
		return Result{}, errors.Wrap(err, "copy executable into sandbox")
	}

	meta := b.metaPath(job.SlotID)
	timeLimitSec := float64(job.TimeLimitMs) / 1000.0
	memLimit := job.MemoryLimitKB
	if memLimit <= 0 {
		memLimit = 262144
	}

	cmd := exec.CommandContext(ctx, "isolate",
		"--box-id", box,
		"--meta", meta,
		"--time", fmt.Sprintf("%.3f", timeLimitSec),
		"--fsize", strconv.Itoa(perFileSizeCapKB),
		"--mem", strconv.Itoa(memLimit),
		"--run", "--", "program",
	)
	cmd.Stdin = strings.NewReader(job.Input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// isolate itself exits non-zero whenever the sandboxed program fails;
	// that is recorded in the meta file, not treated as a spawn error.
	_ = cmd.Run()

	// (e) clean up.
	defer func() {
		_ = exec.CommandContext(context.Background(), "isolate", "--box-id", box, "--cleanup").Run()
	}()

	metaValues, err := readMeta(meta)
	if err != nil {
		return Result{}, errors.Wrap(err, "read isolate meta")
	}

	return interpretMeta(metaValues, stdout.String(), job.ExpectedOutput), nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(0o755)
}

// readMeta parses isolate's "key:value" meta file format.
func readMeta(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		// No meta file at all (e.g. isolate crashed before writing one) is
		// an internal error, not a test verdict.
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values, scanner.Err()
}

// interpretMeta classifies an isolate run into a verdict per §4.2:
//
//	exitsig != 0 or exitcode != 0           -> RuntimeError
//	killed   and status == "TO"             -> TimeLimitExceeded
//	killed   and status in {"SG", "RE"}     -> RuntimeError, unless the
//	                                            kill was an OOM kill, which
//	                                            maps to MemoryLimitExceeded
//	                                            (SPEC_FULL.md Open Question
//	                                            decisions)
//	any other killed                        -> InternalError
//	otherwise                                -> output comparison
func interpretMeta(meta map[string]string, stdout, expected string) Result {
	elapsedMs := 0
	if t, ok := meta["time"]; ok {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			elapsedMs = int(math.Round(f * 1000))
		}
	}

	exitsig := meta["exitsig"]
	exitcode := meta["exitcode"]
	killed := meta["killed"]
	status := meta["status"]

	if nonZero(exitsig) || nonZero(exitcode) {
		return Result{Verdict: models.RuntimeError, ElapsedMs: elapsedMs}
	}

	if killed != "" && nonZero(killed) {
		switch status {
		case "TO":
			return Result{Verdict: models.TimeLimitExceeded, ElapsedMs: elapsedMs}
		case "SG":
			if meta["cg-oom-killed"] == "1" {
				return Result{Verdict: models.MemoryLimitExceeded, ElapsedMs: elapsedMs}
			}
			return Result{Verdict: models.RuntimeError, ElapsedMs: elapsedMs}
		case "RE":
			return Result{Verdict: models.RuntimeError, ElapsedMs: elapsedMs}
		default:
			return Result{Verdict: models.InternalError, ElapsedMs: elapsedMs}
		}
	}

	if tokensEqual(stdout, expected) {
		return Result{Verdict: models.Accepted, ElapsedMs: elapsedMs}
	}
	return Result{Verdict: models.WrongAnswer, ElapsedMs: elapsedMs}
}

func nonZero(s string) bool {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && v != 0
}
