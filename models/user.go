package models

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// User is a durable account. Destruction happens only through DeleteUser's
// cascading delete, which first removes the user's submissions, contest
// memberships and derived scores; this schema has no session table.
type User struct {
	ID           int    `db:"user_id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	IsAdmin      bool   `db:"is_admin"`
}

const queryGetUser = `SELECT user_id, username, password_hash, is_admin FROM users WHERE user_id = ?`

// GetUser fetches a single user by id, failing with sql.ErrNoRows (not
// wrapped) if it does not exist.
func GetUser(ctx db.DBContext, id int) (*User, error) {
	var u User
	if err := ctx.Get(&u, queryGetUser, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

// AddUser inserts a new user and returns its id.
func AddUser(ctx db.DBContext, username, passwordHash string, isAdmin bool) (int, error) {
	res, err := ctx.Exec(
		`INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)`,
		username, passwordHash, isAdmin,
	)
	if err != nil {
		return 0, errors.Wrap(err, "add user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "add user: last insert id")
	}
	return int(id), nil
}

// DeleteUser cascades: every submission (and its derived subtask/test
// results) owned by the user is removed first, then contest memberships,
// then the user's projected scores, then the user row itself.
func DeleteUser(database *db.DB, userID int) error {
	return database.WithTx(func(tx *sqlx.Tx) error {
		submissionIDs, err := AllSubmissionsForUser(tx, userID)
		if err != nil {
			return err
		}
		for _, id := range submissionIDs {
			if err := deleteSubmissionResults(tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM submissions WHERE user_id = ?`, userID); err != nil {
			return errors.Wrap(err, "delete user submissions")
		}
		if _, err := tx.Exec(`DELETE FROM contest_participations WHERE user_id = ?`, userID); err != nil {
			return errors.Wrap(err, "delete user contest participations")
		}
		if _, err := tx.Exec(`DELETE FROM user_problem_scores WHERE user_id = ?`, userID); err != nil {
			return errors.Wrap(err, "delete user scores")
		}
		if _, err := tx.Exec(`DELETE FROM users WHERE user_id = ?`, userID); err != nil {
			return errors.Wrap(err, "delete user")
		}
		return nil
	})
}
