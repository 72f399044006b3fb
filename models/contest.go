package models

import (
	"database/sql"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/pkg/errors"
)

// Contest groups a problem set and a membership set (§3). The contest
// front door (sign-up, sidebar, standings) is out of this core's scope;
// only the relations the grading pipeline's data model depends on live
// here.
type Contest struct {
	ID   int    `db:"contest_id"`
	Name string `db:"name"`
}

// AddContest inserts a new contest.
func AddContest(ctx db.DBContext, name string) (int, error) {
	res, err := ctx.Exec(`INSERT INTO contests (name) VALUES (?)`, name)
	if err != nil {
		return 0, errors.Wrap(err, "add contest")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "add contest: last insert id")
	}
	return int(id), nil
}

// GetContest fetches a single contest by id.
func GetContest(ctx db.DBContext, id int) (*Contest, error) {
	var c Contest
	if err := ctx.Get(&c, `SELECT contest_id, name FROM contests WHERE contest_id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get contest")
	}
	return &c, nil
}

// AddContestProblem attaches a problem to a contest's problem set.
func AddContestProblem(ctx db.DBContext, contestID, problemID int) error {
	_, err := ctx.Exec(`INSERT INTO contest_problems (contest_id, problem_id) VALUES (?, ?)`, contestID, problemID)
	if err != nil {
		return errors.Wrap(err, "add contest problem")
	}
	return nil
}

// AddContestParticipant enrolls a user into a contest's membership set.
func AddContestParticipant(ctx db.DBContext, contestID, userID int) error {
	_, err := ctx.Exec(`INSERT INTO contest_participations (contest_id, user_id) VALUES (?, ?)`, contestID, userID)
	if err != nil {
		return errors.Wrap(err, "add contest participant")
	}
	return nil
}
