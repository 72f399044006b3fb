package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDeleteUserCascades checks the admin cascade from §3: deleting a user
// removes their submissions (and derived subtask/test results), contest
// memberships, and projected scores, leaving no dangling rows behind.
func TestDeleteUserCascades(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database, []int{30}, [][][2]string{
		{{"1", "1"}},
	})
	contestID, err := AddContest(database, "Cup")
	require.NoError(t, err)
	require.NoError(t, AddContestParticipant(database, contestID, userID))

	submissionID, err := AddSubmission(database, userID, problemID, "source")
	require.NoError(t, err)
	require.NoError(t, UpdateUserScoreForProblem(database, userID, problemID, 30))

	require.NoError(t, DeleteUser(database, userID))

	_, err = GetUser(database, userID)
	require.Error(t, err)

	_, err = GetSubmission(database, submissionID)
	require.Error(t, err)

	_, err = GetSubtaskResult(database, submissionID, subtaskIDs[0])
	require.Error(t, err)

	score, err := GetUserScoreForProblem(database, userID, problemID)
	require.NoError(t, err)
	require.Equal(t, 0, score)
}
