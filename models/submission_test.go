package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAddSubmissionSeedsRows checks invariant P1: the seeded TestResult and
// SubtaskResult rows exist immediately, one per problem test/subtask, all
// InQueue, and that set never changes afterwards regardless of later
// problem edits.
func TestAddSubmissionSeedsRows(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database, []int{30}, [][][2]string{
		{{"1 2", "3"}, {"5 6", "11"}},
	})

	submissionID, err := AddSubmission(database, userID, problemID, "int main(){}")
	require.NoError(t, err)

	tests, err := TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	require.Len(t, tests, 2)

	subtasks, err := SubtasksForSubmission(database, submissionID)
	require.NoError(t, err)
	require.Equal(t, subtaskIDs, subtasks)

	for _, testID := range tests {
		v, err := GetTestResult(database, submissionID, testID)
		require.NoError(t, err)
		require.Equal(t, InQueue, v)
	}
	for _, subtaskID := range subtasks {
		v, err := GetSubtaskResult(database, submissionID, subtaskID)
		require.NoError(t, err)
		require.Equal(t, InQueue, v)
	}

	// Adding a test to the problem afterwards must not change this
	// submission's frozen fan-out set (SPEC_FULL.md supplemented feature 4).
	_, err = AddTest(database, problemID, "100 100", "200")
	require.NoError(t, err)
	testsAfter, err := TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	require.Len(t, testsAfter, 2)
}

// TestUpdateSubmissionResultHappyPath is scenario 1 from §8: both tests
// Accepted, subtask Accepted with full points, submission Accepted.
func TestUpdateSubmissionResultHappyPath(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database, []int{30}, [][][2]string{
		{{"1 2", "3"}, {"5 6", "11"}},
	})
	submissionID, err := AddSubmission(database, userID, problemID, "source")
	require.NoError(t, err)

	tests, err := TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	for _, testID := range tests {
		require.NoError(t, SetTestResult(database, submissionID, testID, Accepted))
	}

	require.NoError(t, UpdateSubmissionResult(database, submissionID))

	sub, err := GetSubmission(database, submissionID)
	require.NoError(t, err)
	require.Equal(t, Accepted, sub.Verdict())
	require.NotNil(t, sub.Points)
	require.Equal(t, 30, *sub.Points)

	subtaskPoints, err := GetSubtaskPointsResult(database, submissionID, subtaskIDs[0])
	require.NoError(t, err)
	require.NotNil(t, subtaskPoints)
	require.Equal(t, 30, *subtaskPoints)
}

// TestUpdateSubmissionResultWrongAnswer is scenario 2: every test fails,
// subtask and submission both WrongAnswer with 0 points.
func TestUpdateSubmissionResultWrongAnswer(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database, []int{30}, [][][2]string{
		{{"1 2", "3"}, {"5 6", "11"}},
	})
	submissionID, err := AddSubmission(database, userID, problemID, "source")
	require.NoError(t, err)

	tests, err := TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	for _, testID := range tests {
		require.NoError(t, SetTestResult(database, submissionID, testID, WrongAnswer))
	}

	require.NoError(t, UpdateSubmissionResult(database, submissionID))

	sub, err := GetSubmission(database, submissionID)
	require.NoError(t, err)
	require.Equal(t, WrongAnswer, sub.Verdict())
	require.Equal(t, 0, *sub.Points)

	points, err := GetSubtaskPointsResult(database, submissionID, subtaskIDs[0])
	require.NoError(t, err)
	require.Equal(t, 0, *points)
}

// TestUpdateSubmissionResultPartialCredit is scenario 4: one subtask passes
// fully, the other fails entirely; submission is WrongAnswer with only the
// passing subtask's points (invariant P4, P5 a subtask is all-or-nothing).
func TestUpdateSubmissionResultPartialCredit(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database,
		[]int{30, 70},
		[][][2]string{
			{{"1", "1"}, {"2", "2"}},
			{{"1000000000 1000000000", "2000000000"}},
		},
	)
	submissionID, err := AddSubmission(database, userID, problemID, "source")
	require.NoError(t, err)

	s1Tests, err := GetTestsForSubtask(database, subtaskIDs[0])
	require.NoError(t, err)
	for _, testID := range s1Tests {
		require.NoError(t, SetTestResult(database, submissionID, testID, Accepted))
	}
	s2Tests, err := GetTestsForSubtask(database, subtaskIDs[1])
	require.NoError(t, err)
	for _, testID := range s2Tests {
		require.NoError(t, SetTestResult(database, submissionID, testID, WrongAnswer))
	}

	require.NoError(t, UpdateSubmissionResult(database, submissionID))

	sub, err := GetSubmission(database, submissionID)
	require.NoError(t, err)
	require.Equal(t, WrongAnswer, sub.Verdict())
	require.Equal(t, 30, *sub.Points)
}

// TestUpdateSubmissionResultLastNonAcceptedWins exercises the subtask-level
// "last non-Accepted in scan order" rule: the second test's verdict, not
// the first's, is what the subtask (and, with one subtask, the submission)
// ends up recording.
func TestUpdateSubmissionResultLastNonAcceptedWins(t *testing.T) {
	database := newTestDB(t)
	userID, problemID, subtaskIDs := seedProblem(t, database, []int{30}, [][][2]string{
		{{"1", "1"}, {"2", "2"}},
	})
	submissionID, err := AddSubmission(database, userID, problemID, "source")
	require.NoError(t, err)

	tests, err := TestsForSubmission(database, submissionID)
	require.NoError(t, err)
	require.NoError(t, SetTestResult(database, submissionID, tests[0], RuntimeError))
	require.NoError(t, SetTestResult(database, submissionID, tests[1], TimeLimitExceeded))

	require.NoError(t, UpdateSubmissionResult(database, submissionID))

	result, err := GetSubtaskResult(database, submissionID, subtaskIDs[0])
	require.NoError(t, err)
	require.Equal(t, TimeLimitExceeded, result)
}
