package worker

import (
	"context"
	"testing"
	"time"

	"github.com/natsukagami/kjudge-core/internal/logger"
	"github.com/natsukagami/kjudge-core/models"
	"github.com/natsukagami/kjudge-core/sandbox"
	"github.com/stretchr/testify/require"
)

// blockingBackend holds every job until release is closed, letting a test
// observe in-flight load counters mid-dispatch.
type blockingBackend struct{ release chan struct{} }

func (b blockingBackend) Execute(ctx context.Context, job sandbox.Job) (sandbox.Result, error) {
	<-b.release
	return sandbox.Result{}, nil
}

// TestDispatchPicksLeastLoaded checks that successive dispatches spread
// across workers rather than piling onto one, per §4.3's least-loaded rule.
func TestDispatchPicksLeastLoaded(t *testing.T) {
	database := newTestDB(t)
	release := make(chan struct{})
	backend := blockingBackend{release: release}

	coord := NewCoordinator(database, backend, t.TempDir(), logger.Nop(), nil)
	pool := NewPool(3, backend, database, logger.Nop(), coord, nil)
	coord.AttachPool(pool)

	userID, problemID, _ := seedTwoTestSubtask(t, database)
	submissionID, err := models.AddSubmission(database, userID, problemID, "src")
	require.NoError(t, err)

	tests, err := models.TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		pool.Dispatch(Job{SubmissionID: submissionID, TestID: tests[i%len(tests)], ExecutablePath: "/fake"})
	}

	// Give the dispatcher loop a moment to land all three jobs before
	// inspecting load; each of the 3 workers should have exactly load 1
	// since there were exactly 3 jobs and 3 workers.
	time.Sleep(50 * time.Millisecond)
	total := 0
	for _, s := range pool.slots {
		l := s.load.Load()
		require.LessOrEqual(t, l, int32(1))
		total += int(l)
	}
	require.Equal(t, 3, total)

	close(release)
}
