package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// UserProblemScore is the user's best achievable score on a problem (§3,
// invariant 6: it never exceeds Problem.Points).
type UserProblemScore struct {
	UserID    int `db:"user_id"`
	ProblemID int `db:"problem_id"`
	Score     int `db:"score"`
}

// GetUserScoreForProblem returns the projected score, 0 if no row exists
// yet (a user with no accepted subtasks on the problem).
func GetUserScoreForProblem(ctx db.DBContext, userID, problemID int) (int, error) {
	var s UserProblemScore
	err := ctx.Get(&s, `SELECT user_id, problem_id, score FROM user_problem_scores WHERE user_id = ? AND problem_id = ?`, userID, problemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrap(err, "get user score for problem")
	}
	return s.Score, nil
}

// UpdateUserScoreForProblem upserts the projected score on (user_id,
// problem_id), the write half of the C5 Score Projection rule (§4.5).
func UpdateUserScoreForProblem(ctx db.DBContext, userID, problemID, score int) error {
	_, err := ctx.Exec(
		`INSERT INTO user_problem_scores (user_id, problem_id, score) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, problem_id) DO UPDATE SET score = excluded.score`,
		userID, problemID, score,
	)
	if err != nil {
		return errors.Wrap(err, "update user score for problem")
	}
	return nil
}
