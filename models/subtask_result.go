package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// SubtaskResult is one row per subtask at submission time (§3). Points is
// always 0 or exactly the subtask's score (invariant 4 / P4).
type SubtaskResult struct {
	SubmissionID int   `db:"submission_id"`
	SubtaskID    int   `db:"subtask_id"`
	Result       int   `db:"result"`
	Points       *int  `db:"points"`
}

// SetSubtaskResult writes both the result and points columns in one call,
// since the aggregator (§4.4) always derives them together.
func SetSubtaskResult(ctx db.DBContext, submissionID, subtaskID int, v Verdict, points int) error {
	_, err := ctx.Exec(
		`UPDATE subtask_results SET result = ?, points = ? WHERE submission_id = ? AND subtask_id = ?`,
		EncodeVerdict(v), points, submissionID, subtaskID,
	)
	if err != nil {
		return errors.Wrap(err, "set subtask result")
	}
	return nil
}

// GetSubtaskResult returns the decoded current verdict for one subtask of
// one submission.
func GetSubtaskResult(ctx db.DBContext, submissionID, subtaskID int) (Verdict, error) {
	var r SubtaskResult
	if err := ctx.Get(&r, `SELECT submission_id, subtask_id, result, points FROM subtask_results WHERE submission_id = ? AND subtask_id = ?`, submissionID, subtaskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InternalError, err
		}
		return InternalError, errors.Wrap(err, "get subtask result")
	}
	return DecodeVerdict(r.Result), nil
}

// GetSubtaskPointsResult returns the points awarded, nil while pending.
func GetSubtaskPointsResult(ctx db.DBContext, submissionID, subtaskID int) (*int, error) {
	var r SubtaskResult
	if err := ctx.Get(&r, `SELECT submission_id, subtask_id, result, points FROM subtask_results WHERE submission_id = ? AND subtask_id = ?`, submissionID, subtaskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get subtask points result")
	}
	return r.Points, nil
}
