package models

import (
	"path/filepath"
	"testing"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh sqlite file under the test's temp dir and
// bootstraps the schema, mirroring how a real process starts (§6).
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kjudge-test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Bootstrap())
	return database
}

// seedProblem creates a user and a problem with the given subtasks, each
// subtask's tests given as (input, expected) pairs, and returns the user id,
// problem id, and the ordered subtask ids.
func seedProblem(t *testing.T, database *db.DB, subtaskPoints []int, subtaskTests [][][2]string) (userID, problemID int, subtaskIDs []int) {
	t.Helper()
	var err error
	userID, err = AddUser(database, "alice", "hash", false)
	require.NoError(t, err)
	problemID, err = AddProblem(database, "A+B", "", 1000, 262144)
	require.NoError(t, err)

	for i, score := range subtaskPoints {
		subtaskID, err := AddSubtask(database, problemID, score)
		require.NoError(t, err)
		subtaskIDs = append(subtaskIDs, subtaskID)
		for _, pair := range subtaskTests[i] {
			testID, err := AddTest(database, problemID, pair[0], pair[1])
			require.NoError(t, err)
			require.NoError(t, AddSubtaskTest(database, subtaskID, testID))
		}
	}
	return userID, problemID, subtaskIDs
}
