package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// TestResult is one row per test at submission time (§3).
type TestResult struct {
	SubmissionID int  `db:"submission_id"`
	TestID       int  `db:"test_id"`
	Result       int  `db:"result"`
	TimeMs       *int `db:"time_ms"`
}

// SetTestResult writes the verdict for one (submission, test) pair. Used
// both for the Testing transition and for the final verdict.
func SetTestResult(ctx db.DBContext, submissionID, testID int, v Verdict) error {
	_, err := ctx.Exec(`UPDATE test_results SET result = ? WHERE submission_id = ? AND test_id = ?`, EncodeVerdict(v), submissionID, testID)
	if err != nil {
		return errors.Wrap(err, "set test result")
	}
	return nil
}

// SetTestTime records the elapsed wall/CPU time for a completed test.
func SetTestTime(ctx db.DBContext, submissionID, testID, elapsedMs int) error {
	_, err := ctx.Exec(`UPDATE test_results SET time_ms = ? WHERE submission_id = ? AND test_id = ?`, elapsedMs, submissionID, testID)
	if err != nil {
		return errors.Wrap(err, "set test time")
	}
	return nil
}

// GetTestResult returns the decoded verdict for one (submission, test) pair.
func GetTestResult(ctx db.DBContext, submissionID, testID int) (Verdict, error) {
	var r TestResult
	if err := ctx.Get(&r, `SELECT submission_id, test_id, result, time_ms FROM test_results WHERE submission_id = ? AND test_id = ?`, submissionID, testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InternalError, err
		}
		return InternalError, errors.Wrap(err, "get test result")
	}
	return DecodeVerdict(r.Result), nil
}

// GetTestTime returns the elapsed time for one (submission, test) pair,
// nil if not yet recorded.
func GetTestTime(ctx db.DBContext, submissionID, testID int) (*int, error) {
	var r TestResult
	if err := ctx.Get(&r, `SELECT submission_id, test_id, result, time_ms FROM test_results WHERE submission_id = ? AND test_id = ?`, submissionID, testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get test time")
	}
	return r.TimeMs, nil
}
