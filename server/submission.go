package server

import (
	"database/sql"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/models"
	"github.com/pkg/errors"
)

func parseID(s string) (int, error) {
	return strconv.Atoi(s)
}

// submissionResponse is the JSON shape of get_submission_view (§6).
type submissionResponse struct {
	Code     string                `json:"code"`
	Result   string                `json:"result"`
	Points   *int                  `json:"points"`
	Subtasks []subtaskResponse     `json:"subtasks"`
	Tests    []testResponse        `json:"tests"`
}

type subtaskResponse struct {
	SubtaskID int    `json:"subtask_id"`
	Result    string `json:"result"`
	Points    *int   `json:"points"`
	Total     int    `json:"total"`
}

type testResponse struct {
	TestID    int    `json:"test_id"`
	Result    string `json:"result"`
	ElapsedMs *int   `json:"elapsed_ms"`
}

// submissionView fetches and translates a SubmissionView into the wire
// format, mapping a missing submission to echo's 404.
func submissionView(ctx db.DBContext, submissionID int) (*submissionResponse, error) {
	view, err := models.GetSubmissionView(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, echo.ErrNotFound
		}
		return nil, err
	}

	resp := &submissionResponse{
		Code:   view.Code,
		Result: view.Result.String(),
		Points: view.Points,
	}
	for _, st := range view.Subtasks {
		resp.Subtasks = append(resp.Subtasks, subtaskResponse{
			SubtaskID: st.SubtaskID,
			Result:    st.Result.String(),
			Points:    st.Points,
			Total:     st.Total,
		})
	}
	for _, t := range view.TestViews {
		resp.Tests = append(resp.Tests, testResponse{
			TestID:    t.TestID,
			Result:    t.Result.String(),
			ElapsedMs: t.ElapsedMs,
		})
	}
	return resp, nil
}
