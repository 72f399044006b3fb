// Package worker is the Worker Pool (C3) and Grading Coordinator (C4): a
// fixed-size set of independent sandbox executors with least-loaded
// dispatch, and the per-submission state machine that drives compile,
// fan-out and fan-in around them.
package worker

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/internal/logger"
	"github.com/natsukagami/kjudge-core/internal/metrics"
	"github.com/natsukagami/kjudge-core/models"
	"github.com/natsukagami/kjudge-core/sandbox"
)

// queueCapacity is the bounded per-worker inbound queue size (§4.3).
const queueCapacity = 255

// Job is one test dispatched to a worker.
type Job struct {
	SubmissionID   int
	TestID         int
	ExecutablePath string
}

// slot is one worker: a unique sandbox-id-qualified execution lane that
// runs at most one test at a time.
type slot struct {
	id    int
	queue chan Job
	load  atomic.Int32
}

// Pool is the fixed-size set of N worker goroutines, each owning one
// sandbox slot. Dispatch picks the least-loaded worker, ties broken by
// first occurrence; load counters are advisory only, so a racing
// dispatcher landing on a non-minimum worker is safe, merely suboptimal
// (§4.3, §5, §9 Design Notes).
type Pool struct {
	slots   []*slot
	backend sandbox.Backend
	db      *db.DB
	log     *logger.Logger
	coord   *Coordinator
	metrics *metrics.Metrics
}

// NewPool spawns n worker goroutines, one per sandbox slot 0..n-1, and
// wires them to coord for the fan-in step. m may be nil, in which case
// metric updates are skipped.
func NewPool(n int, backend sandbox.Backend, database *db.DB, log *logger.Logger, coord *Coordinator, m *metrics.Metrics) *Pool {
	p := &Pool{backend: backend, db: database, log: log, coord: coord, metrics: m}
	for i := 0; i < n; i++ {
		s := &slot{id: i, queue: make(chan Job, queueCapacity)}
		p.slots = append(p.slots, s)
		if p.metrics != nil {
			p.metrics.WorkerLoad.WithLabelValues(strconv.Itoa(i)).Set(0)
		}
		go p.run(s)
	}
	return p
}

// Dispatch routes job to the least-loaded worker. The load increment
// happens before the channel send so a racing dispatcher observes the new
// load (§4.3). Sending on a full queue back-pressures the caller; a job is
// never dropped.
func (p *Pool) Dispatch(job Job) {
	min := p.slots[0]
	minLoad := min.load.Load()
	for _, s := range p.slots[1:] {
		if l := s.load.Load(); l < minLoad {
			min, minLoad = s, l
		}
	}
	min.load.Add(1)
	if p.metrics != nil {
		p.metrics.WorkerLoad.WithLabelValues(strconv.Itoa(min.id)).Set(float64(min.load.Load()))
	}
	min.queue <- job
}

func (p *Pool) run(s *slot) {
	for job := range s.queue {
		p.execute(s, job)
	}
}

// execute runs one job: set Testing, call the sandbox backend, persist the
// verdict and elapsed time, then perform the test-completion step (§4.3).
// Any error along the way is logged and forces the test verdict to
// InternalError; the completion step still runs so fan-in never stalls
// (§7).
func (p *Pool) execute(s *slot, job Job) {
	ctx := context.Background()
	fields := []logger.Field{{Key: "submission_id", Value: job.SubmissionID}, {Key: "test_id", Value: job.TestID}}

	if err := models.SetTestResult(p.db, job.SubmissionID, job.TestID, models.Testing); err != nil {
		p.log.Error("set test result to Testing failed", err, fields...)
	}

	verdict := models.InternalError
	elapsed := 0
	if result, ok := p.runSandboxed(ctx, s, job, fields); ok {
		verdict = result.Verdict
		elapsed = result.ElapsedMs
	}

	if err := models.SetTestResult(p.db, job.SubmissionID, job.TestID, verdict); err != nil {
		p.log.Error("set test result failed", err, fields...)
	}
	if err := models.SetTestTime(p.db, job.SubmissionID, job.TestID, elapsed); err != nil {
		p.log.Error("set test time failed", err, fields...)
	}

	s.load.Add(-1)
	if p.metrics != nil {
		p.metrics.WorkerLoad.WithLabelValues(strconv.Itoa(s.id)).Set(float64(s.load.Load()))
		p.metrics.TestsGradedTotal.WithLabelValues(verdict.String()).Inc()
	}
	p.completeTest(job, fields)
}

func (p *Pool) runSandboxed(ctx context.Context, s *slot, job Job, fields []logger.Field) (sandbox.Result, bool) {
	input, expected, err := models.GetTestData(p.db, job.TestID)
	if err != nil {
		p.log.Error("get test data failed", err, fields...)
		return sandbox.Result{}, false
	}
	problemID, err := models.GetSubmissionProblem(p.db, job.SubmissionID)
	if err != nil {
		p.log.Error("get submission problem failed", err, fields...)
		return sandbox.Result{}, false
	}
	timeLimit, err := models.GetProblemTimeLimit(p.db, problemID)
	if err != nil {
		p.log.Error("get problem time limit failed", err, fields...)
		return sandbox.Result{}, false
	}
	memLimit, err := models.GetProblemMemoryLimit(p.db, problemID)
	if err != nil {
		memLimit = 0
	}

	result, err := p.backend.Execute(ctx, sandbox.Job{
		Input:          input,
		ExpectedOutput: expected,
		ExecutablePath: job.ExecutablePath,
		TimeLimitMs:    timeLimit,
		MemoryLimitKB:  memLimit,
		SlotID:         s.id,
	})
	if err != nil {
		p.log.Error("sandbox execute failed", err, fields...)
		return sandbox.Result{}, false
	}
	return result, true
}

// completeTest is the test-completion step (§4.3): increment the
// submission's tests_done counter, and if it has now reached the total,
// invoke the aggregator. The increment is atomic against the comparison
// because IncrementSubmissionTestsDone writes and reads back the new value
// in a single UPDATE ... RETURNING statement, so the aggregator runs
// exactly once per submission regardless of how many workers finish at
// nearly the same instant.
func (p *Pool) completeTest(job Job, fields []logger.Field) {
	testsDone, err := models.IncrementSubmissionTestsDone(p.db, job.SubmissionID)
	if err != nil {
		p.log.Error("increment tests done failed", err, fields...)
		return
	}
	tests, err := models.TestsForSubmission(p.db, job.SubmissionID)
	if err != nil {
		p.log.Error("get tests for submission failed", err, fields...)
		return
	}
	if testsDone == len(tests) {
		p.coord.aggregate(job.SubmissionID)
	}
}
