package worker

import (
	"path/filepath"
	"testing"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/models"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kjudge-test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Bootstrap())
	return database
}

// TestUpdateUserScoreForProblemBestSum is C5's core rule: the projected
// score is the sum, per subtask, of the best points the user ever earned on
// it, not the best single submission's total.
func TestUpdateUserScoreForProblemBestSum(t *testing.T) {
	database := newTestDB(t)
	userID, err := models.AddUser(database, "alice", "hash", false)
	require.NoError(t, err)
	problemID, err := models.AddProblem(database, "A+B", "", 1000, 262144)
	require.NoError(t, err)

	s1, err := models.AddSubtask(database, problemID, 30)
	require.NoError(t, err)
	s2, err := models.AddSubtask(database, problemID, 70)
	require.NoError(t, err)
	t1, err := models.AddTest(database, problemID, "1", "1")
	require.NoError(t, err)
	require.NoError(t, models.AddSubtaskTest(database, s1, t1))
	t2, err := models.AddTest(database, problemID, "2", "2")
	require.NoError(t, err)
	require.NoError(t, models.AddSubtaskTest(database, s2, t2))

	// First submission: only subtask 1 passes.
	sub1, err := models.AddSubmission(database, userID, problemID, "src1")
	require.NoError(t, err)
	require.NoError(t, models.SetSubtaskResult(database, sub1, s1, models.Accepted, 30))
	require.NoError(t, models.SetSubtaskResult(database, sub1, s2, models.WrongAnswer, 0))
	require.NoError(t, UpdateUserScoreForProblem(database, userID, problemID))

	score, err := models.GetUserScoreForProblem(database, userID, problemID)
	require.NoError(t, err)
	require.Equal(t, 30, score)

	// Second submission: only subtask 2 passes. The projection must combine
	// the best of each subtask across both submissions, not just use the
	// latest submission's total.
	sub2, err := models.AddSubmission(database, userID, problemID, "src2")
	require.NoError(t, err)
	require.NoError(t, models.SetSubtaskResult(database, sub2, s1, models.WrongAnswer, 0))
	require.NoError(t, models.SetSubtaskResult(database, sub2, s2, models.Accepted, 70))
	require.NoError(t, UpdateUserScoreForProblem(database, userID, problemID))

	score, err = models.GetUserScoreForProblem(database, userID, problemID)
	require.NoError(t, err)
	require.Equal(t, 100, score)
}

// TestUpdateUserScoreForProblemMonotone is scenario 7: the projected score
// never decreases across a user's submission history, even after a worse
// submission follows a better one.
func TestUpdateUserScoreForProblemMonotone(t *testing.T) {
	database := newTestDB(t)
	userID, err := models.AddUser(database, "alice", "hash", false)
	require.NoError(t, err)
	problemID, err := models.AddProblem(database, "A+B", "", 1000, 262144)
	require.NoError(t, err)
	s1, err := models.AddSubtask(database, problemID, 30)
	require.NoError(t, err)
	s2, err := models.AddSubtask(database, problemID, 70)
	require.NoError(t, err)

	scores := []int{}
	record := func(s1Points, s2Points int) {
		subID, err := models.AddSubmission(database, userID, problemID, "src")
		require.NoError(t, err)
		require.NoError(t, models.SetSubtaskResult(database, subID, s1, models.Accepted, s1Points))
		require.NoError(t, models.SetSubtaskResult(database, subID, s2, models.Accepted, s2Points))
		require.NoError(t, UpdateUserScoreForProblem(database, userID, problemID))
		score, err := models.GetUserScoreForProblem(database, userID, problemID)
		require.NoError(t, err)
		scores = append(scores, score)
	}

	record(30, 0)   // 0 -> 30
	record(30, 70)  // 30 -> 100
	record(0, 0)    // a worse submission must not lower the projection

	require.Equal(t, []int{30, 100, 100}, scores)
}
