package models

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// Submission is one user-authored source blob targeting one problem,
// graded once, result persisted (GLOSSARY).
type Submission struct {
	ID         int    `db:"submission_id"`
	UserID     int    `db:"user_id"`
	ProblemID  int    `db:"problem_id"`
	SourceCode string `db:"source_code"`
	Result     int    `db:"result"` // encoded Verdict
	Points     *int   `db:"points"`
	TestsDone  int    `db:"tests_done"`
}

// Verdict decodes the submission's stored result.
func (s *Submission) Verdict() Verdict {
	return DecodeVerdict(s.Result)
}

// AddSubmission creates the submission row in InQueue and seeds one
// SubtaskResult per problem subtask and one TestResult per problem test,
// all InQueue, satisfying invariant 1 (§3) before the function returns:
// tests_for_submission and subtasks_for_submission are frozen for this
// submission's lifetime the moment this call returns, regardless of any
// later admin edit to the problem's test/subtask set (SPEC_FULL.md
// supplemented feature 4).
func AddSubmission(database *db.DB, userID, problemID int, code string) (int, error) {
	var submissionID int
	err := database.WithTx(func(tx *sqlx.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO submissions (user_id, problem_id, source_code, result, tests_done) VALUES (?, ?, ?, ?, 0)`,
			userID, problemID, code, EncodeVerdict(InQueue),
		)
		if err != nil {
			return errors.Wrap(err, "add submission")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "add submission: last insert id")
		}
		submissionID = int(id)

		subtasks, err := GetSubtasksForProblem(tx, problemID)
		if err != nil {
			return err
		}
		for _, st := range subtasks {
			if _, err := tx.Exec(
				`INSERT INTO subtask_results (submission_id, subtask_id, result) VALUES (?, ?, ?)`,
				submissionID, st.ID, EncodeVerdict(InQueue),
			); err != nil {
				return errors.Wrap(err, "seed subtask result")
			}
		}

		tests, err := GetAllTestsForProblem(tx, problemID)
		if err != nil {
			return err
		}
		for _, testID := range tests {
			if _, err := tx.Exec(
				`INSERT INTO test_results (submission_id, test_id, result) VALUES (?, ?, ?)`,
				submissionID, testID, EncodeVerdict(InQueue),
			); err != nil {
				return errors.Wrap(err, "seed test result")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return submissionID, nil
}

// GetSubmission fetches a single submission by id.
func GetSubmission(ctx db.DBContext, id int) (*Submission, error) {
	var s Submission
	if err := ctx.Get(&s, `SELECT submission_id, user_id, problem_id, source_code, result, points, tests_done FROM submissions WHERE submission_id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get submission")
	}
	return &s, nil
}

// GetSubmissionCode returns the submitted source.
func GetSubmissionCode(ctx db.DBContext, submissionID int) (string, error) {
	s, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return "", err
	}
	return s.SourceCode, nil
}

// GetSubmissionResult returns the decoded current verdict.
func GetSubmissionResult(ctx db.DBContext, submissionID int) (Verdict, error) {
	s, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return InternalError, err
	}
	return s.Verdict(), nil
}

// GetSubmissionPoints returns the submission's points, nil until grading
// completes (§3).
func GetSubmissionPoints(ctx db.DBContext, submissionID int) (*int, error) {
	s, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return s.Points, nil
}

// GetSubmissionProblem returns the problem id a submission targets.
func GetSubmissionProblem(ctx db.DBContext, submissionID int) (int, error) {
	s, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return 0, err
	}
	return s.ProblemID, nil
}

// GetSubmissionTestsDone returns the monotonically increasing tests_done
// counter (§3 invariant 2).
func GetSubmissionTestsDone(ctx db.DBContext, submissionID int) (int, error) {
	s, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return 0, err
	}
	return s.TestsDone, nil
}

// SetSubmissionResult sets the submission's verdict without touching
// points, used for the InQueue -> Compiling -> Testing transitions (§4.4).
func SetSubmissionResult(ctx db.DBContext, submissionID int, v Verdict) error {
	_, err := ctx.Exec(`UPDATE submissions SET result = ? WHERE submission_id = ?`, EncodeVerdict(v), submissionID)
	if err != nil {
		return errors.Wrap(err, "set submission result")
	}
	return nil
}

// IncrementSubmissionTestsDone atomically increments tests_done and
// returns the new value. The increment and the read of its own result are
// one UPDATE ... RETURNING statement, so two workers finishing at the same
// instant always read back distinct values, matching §5's ordering
// guarantee that the aggregator runs exactly once per submission.
func IncrementSubmissionTestsDone(ctx db.DBContext, submissionID int) (int, error) {
	var testsDone int
	if err := ctx.Get(&testsDone, `UPDATE submissions SET tests_done = tests_done + 1 WHERE submission_id = ? RETURNING tests_done`, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, errors.Wrap(err, "increment submission tests done")
	}
	return testsDone, nil
}

// TestsForSubmission lists the test ids seeded for this submission, i.e.
// the fan-out set dispatch iterates over (SPEC_FULL.md supplemented
// feature 4).
func TestsForSubmission(ctx db.DBContext, submissionID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT test_id FROM test_results WHERE submission_id = ? ORDER BY test_id ASC`, submissionID); err != nil {
		return nil, errors.Wrap(err, "tests for submission")
	}
	return ids, nil
}

// SubtasksForSubmission lists the subtask ids seeded for this submission,
// ascending by id (the scan order for the submission-failure verdict rule).
func SubtasksForSubmission(ctx db.DBContext, submissionID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT subtask_id FROM subtask_results WHERE submission_id = ? ORDER BY subtask_id ASC`, submissionID); err != nil {
		return nil, errors.Wrap(err, "subtasks for submission")
	}
	return ids, nil
}

// AllSubmissionsForUser lists every submission id belonging to userID.
func AllSubmissionsForUser(ctx db.DBContext, userID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT submission_id FROM submissions WHERE user_id = ?`, userID); err != nil {
		return nil, errors.Wrap(err, "all submissions for user")
	}
	return ids, nil
}

// GetUserProblemSubmissions lists every submission id by user_id targeting
// problem_id, ascending by id (oldest first) — the enumeration order the
// Score Projection rule (§4.5) folds over.
func GetUserProblemSubmissions(ctx db.DBContext, userID, problemID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT submission_id FROM submissions WHERE user_id = ? AND problem_id = ? ORDER BY submission_id ASC`, userID, problemID); err != nil {
		return nil, errors.Wrap(err, "get user problem submissions")
	}
	return ids, nil
}

// deleteSubmissionResults removes every SubtaskResult and TestResult row
// for one submission. Used both by cascading user deletion and by problem
// invalidation.
func deleteSubmissionResults(ctx db.DBContext, submissionID int) error {
	if _, err := ctx.Exec(`DELETE FROM test_results WHERE submission_id = ?`, submissionID); err != nil {
		return errors.Wrap(err, "delete test results")
	}
	if _, err := ctx.Exec(`DELETE FROM subtask_results WHERE submission_id = ?`, submissionID); err != nil {
		return errors.Wrap(err, "delete subtask results")
	}
	return nil
}

// updateSubtaskResult scans a subtask's member test results for this
// submission. If every one is Accepted, the subtask result is Accepted and
// its points equal subtask_score; otherwise the result is the last
// non-Accepted test verdict encountered in ascending test-id scan order and
// points are 0 (§4.4, invariant 4).
func updateSubtaskResult(ctx db.DBContext, submissionID, subtaskID int) error {
	tests, err := GetTestsForSubtask(ctx, subtaskID)
	if err != nil {
		return err
	}
	result := Accepted
	for _, testID := range tests {
		tr, err := GetTestResult(ctx, submissionID, testID)
		if err != nil {
			return err
		}
		if tr != Accepted {
			result = tr
		}
	}
	points := 0
	if result == Accepted {
		points, err = GetSubtaskTotalPoints(ctx, subtaskID)
		if err != nil {
			return err
		}
	}
	return SetSubtaskResult(ctx, submissionID, subtaskID, result, points)
}

// UpdateSubmissionResult is the aggregator (§4.4): triggered once, when the
// last test of a submission completes. It re-derives every subtask result
// for the submission, then folds those into the submission's own verdict
// and point total.
//
// The submission verdict, on failure, is the last non-Accepted subtask
// verdict encountered while scanning subtasks in ascending subtask_id
// order (SPEC_FULL.md Open Question decisions) — callers must not assume a
// specific tag is chosen among several failing subtasks, only that it is
// one of them (§9 Design Notes).
func UpdateSubmissionResult(ctx db.DBContext, submissionID int) error {
	subtasks, err := SubtasksForSubmission(ctx, submissionID)
	if err != nil {
		return err
	}

	result := Accepted
	points := 0
	for _, subtaskID := range subtasks {
		if err := updateSubtaskResult(ctx, submissionID, subtaskID); err != nil {
			return err
		}
		subtaskResult, err := GetSubtaskResult(ctx, submissionID, subtaskID)
		if err != nil {
			return err
		}
		if subtaskResult != Accepted {
			result = subtaskResult
		}
		p, err := GetSubtaskPointsResult(ctx, submissionID, subtaskID)
		if err != nil {
			return err
		}
		if p != nil {
			points += *p
		}
	}

	if _, err := ctx.Exec(`UPDATE submissions SET result = ?, points = ? WHERE submission_id = ?`, EncodeVerdict(result), points, submissionID); err != nil {
		return errors.Wrap(err, "update submission result")
	}
	return nil
}

// SubmissionView is the read model for get_submission_view (§6): the
// front door's only read path into grading state.
type SubmissionView struct {
	Code      string
	Result    Verdict
	Points    *int
	Subtasks  []SubtaskView
	TestViews []TestView
}

// SubtaskView is one entry of SubmissionView.Subtasks.
type SubtaskView struct {
	SubtaskID int
	Result    Verdict
	Points    *int
	Total     int
}

// TestView is one entry of SubmissionView.TestViews.
type TestView struct {
	TestID    int
	Result    Verdict
	ElapsedMs *int
}

// GetSubmissionView assembles the pure read used by the front door to
// render a submission's page.
func GetSubmissionView(ctx db.DBContext, submissionID int) (*SubmissionView, error) {
	sub, err := GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	subtaskIDs, err := SubtasksForSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	subtaskViews := make([]SubtaskView, 0, len(subtaskIDs))
	for _, id := range subtaskIDs {
		result, err := GetSubtaskResult(ctx, submissionID, id)
		if err != nil {
			return nil, err
		}
		points, err := GetSubtaskPointsResult(ctx, submissionID, id)
		if err != nil {
			return nil, err
		}
		total, err := GetSubtaskTotalPoints(ctx, id)
		if err != nil {
			return nil, err
		}
		subtaskViews = append(subtaskViews, SubtaskView{SubtaskID: id, Result: result, Points: points, Total: total})
	}

	testIDs, err := TestsForSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	testViews := make([]TestView, 0, len(testIDs))
	for _, id := range testIDs {
		result, err := GetTestResult(ctx, submissionID, id)
		if err != nil {
			return nil, err
		}
		elapsed, err := GetTestTime(ctx, submissionID, id)
		if err != nil {
			return nil, err
		}
		testViews = append(testViews, TestView{TestID: id, Result: result, ElapsedMs: elapsed})
	}

	return &SubmissionView{
		Code:      sub.SourceCode,
		Result:    sub.Verdict(),
		Points:    sub.Points,
		Subtasks:  subtaskViews,
		TestViews: testViews,
	}, nil
}
