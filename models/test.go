package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// Test is one (input, expected_output) pair, the unit of sandboxed
// execution (GLOSSARY).
type Test struct {
	ID             int    `db:"test_id"`
	ProblemID      int    `db:"problem_id"`
	Input          string `db:"input"`
	ExpectedOutput string `db:"expected_output"`
}

// AddTest inserts a test for a problem and returns its id.
func AddTest(ctx db.DBContext, problemID int, input, expectedOutput string) (int, error) {
	res, err := ctx.Exec(
		`INSERT INTO tests (problem_id, input, expected_output) VALUES (?, ?, ?)`,
		problemID, input, expectedOutput,
	)
	if err != nil {
		return 0, errors.Wrap(err, "add test")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "add test: last insert id")
	}
	return int(id), nil
}

// GetTestData returns the (input, expected_output) pair for a test, the
// exact signature the Sandbox Runner needs to execute one test (§4.1).
func GetTestData(ctx db.DBContext, testID int) (input, expectedOutput string, err error) {
	var t Test
	if err := ctx.Get(&t, `SELECT test_id, problem_id, input, expected_output FROM tests WHERE test_id = ?`, testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", err
		}
		return "", "", errors.Wrap(err, "get test data")
	}
	return t.Input, t.ExpectedOutput, nil
}

// GetAllTestsForProblem lists every test id belonging to a problem,
// ascending by id — the seed order for add_submission's fan-out.
func GetAllTestsForProblem(ctx db.DBContext, problemID int) ([]int, error) {
	var ids []int
	if err := ctx.Select(&ids, `SELECT test_id FROM tests WHERE problem_id = ? ORDER BY test_id ASC`, problemID); err != nil {
		return nil, errors.Wrap(err, "get all tests for problem")
	}
	return ids, nil
}
