package worker

import (
	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/models"
)

// UpdateUserScoreForProblem is the C5 Score Projection: the user's best
// achievable score on a problem is the sum, over every subtask currently
// defined on the problem, of the maximum SubtaskResult.points that user has
// ever earned on that subtask across all of their submissions (§4.5). It is
// recomputed from scratch on every call rather than incrementally, which is
// what keeps it monotonic non-decreasing even when problem subtasks are
// added after old submissions were graded (invariant P5): a later call only
// ever sees more history, never less.
func UpdateUserScoreForProblem(database *db.DB, userID, problemID int) error {
	subtasks, err := models.GetSubtasksForProblem(database, problemID)
	if err != nil {
		return err
	}
	submissionIDs, err := models.GetUserProblemSubmissions(database, userID, problemID)
	if err != nil {
		return err
	}

	total := 0
	for _, st := range subtasks {
		total += bestSubtaskPoints(database, submissionIDs, st.ID)
	}

	return models.UpdateUserScoreForProblem(database, userID, problemID, total)
}

// bestSubtaskPoints scans every submission's result for one subtask and
// returns the best points earned. A submission that predates the subtask
// (so it has no row for it) contributes nothing, not an error.
func bestSubtaskPoints(ctx db.DBContext, submissionIDs []int, subtaskID int) int {
	best := 0
	for _, submissionID := range submissionIDs {
		points, err := models.GetSubtaskPointsResult(ctx, submissionID, subtaskID)
		if err != nil {
			// No row means this submission predates the subtask; not a failure.
			continue
		}
		if points != nil && *points > best {
			best = *points
		}
	}
	return best
}
