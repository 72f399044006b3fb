package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// Subtask is worth SubtaskScore points only if every test it contains
// passes (§3, GLOSSARY).
type Subtask struct {
	ID           int `db:"subtask_id"`
	ProblemID    int `db:"problem_id"`
	SubtaskScore int `db:"subtask_score"`
}

// AddSubtask inserts a subtask and increments the owning problem's points
// by exactly subtaskScore, maintaining invariant P8 / §3 invariant 3.
func AddSubtask(ctx db.DBContext, problemID, subtaskScore int) (int, error) {
	res, err := ctx.Exec(
		`INSERT INTO subtasks (problem_id, subtask_score) VALUES (?, ?)`,
		problemID, subtaskScore,
	)
	if err != nil {
		return 0, errors.Wrap(err, "add subtask")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "add subtask: last insert id")
	}
	if _, err := ctx.Exec(`UPDATE problems SET points = points + ? WHERE problem_id = ?`, subtaskScore, problemID); err != nil {
		return 0, errors.Wrap(err, "add subtask: update problem points")
	}
	return int(id), nil
}

// AddSubtaskTest attaches test testID to subtask subtaskID. A test may
// belong to zero or more subtasks (§3).
func AddSubtaskTest(ctx db.DBContext, subtaskID, testID int) error {
	_, err := ctx.Exec(`INSERT INTO subtask_tests (subtask_id, test_id) VALUES (?, ?)`, subtaskID, testID)
	if err != nil {
		return errors.Wrap(err, "add subtask test")
	}
	return nil
}

// GetSubtasksForProblem lists every subtask of a problem, ascending by id —
// this ascending order is also the scan order used by the submission-failure
// verdict rule (SPEC_FULL.md Open Question decisions).
func GetSubtasksForProblem(ctx db.DBContext, problemID int) ([]*Subtask, error) {
	var subtasks []*Subtask
	if err := ctx.Select(&subtasks, `SELECT subtask_id, problem_id, subtask_score FROM subtasks WHERE problem_id = ? ORDER BY subtask_id ASC`, problemID); err != nil {
		return nil, errors.Wrap(err, "get subtasks for problem")
	}
	return subtasks, nil
}

// GetTestsForSubtask lists the test ids belonging to a subtask, ascending
// by id.
func GetTestsForSubtask(ctx db.DBContext, subtaskID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT test_id FROM subtask_tests WHERE subtask_id = ? ORDER BY test_id ASC`, subtaskID); err != nil {
		return nil, errors.Wrap(err, "get tests for subtask")
	}
	return ids, nil
}

// GetSubtaskTotalPoints returns subtask_score for subtaskID.
func GetSubtaskTotalPoints(ctx db.DBContext, subtaskID int) (int, error) {
	var score int
	if err := ctx.Get(&score, `SELECT subtask_score FROM subtasks WHERE subtask_id = ?`, subtaskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, errors.Wrap(err, "get subtask total points")
	}
	return score, nil
}
