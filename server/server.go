// Package server is the thin HTTP front door (§6): it exposes submit and
// get_submission_view over JSON, plus health and metrics endpoints for the
// ambient stack. Grounded on the teacher's echo-based handler shape
// (git.nkagami.me/natsukagami/kjudge/server/contests), generalised past
// contest/session auth since the system under test has none (Non-goals).
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/internal/logger"
	"github.com/natsukagami/kjudge-core/internal/metrics"
	"github.com/natsukagami/kjudge-core/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the echo instance and its dependencies.
type Server struct {
	echo  *echo.Echo
	db    *db.DB
	coord *worker.Coordinator
	log   *logger.Logger
}

// New builds a Server and registers its routes.
func New(database *db.DB, coord *worker.Coordinator, log *logger.Logger, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, db: database, coord: coord, log: log}

	e.GET("/healthz", s.Health)
	e.POST("/submissions", s.Submit)
	e.GET("/submissions/:id", s.GetSubmission)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	return s
}

// Start blocks serving on addr until the process is killed or the server
// errors.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Health is a liveness probe (§6 ambient stack).
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// submitRequest is the submit(user, problem, code) request body (§6).
type submitRequest struct {
	UserID    int    `json:"user_id"`
	ProblemID int    `json:"problem_id"`
	Code      string `json:"code"`
}

// Submit implements submit(user, problem, code) -> submission_id.
func (s *Server) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 || req.ProblemID == 0 || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id, problem_id and code are required")
	}

	submissionID, err := s.coord.Submit(req.UserID, req.ProblemID, req.Code)
	if err != nil {
		s.log.Error("submit failed", err, logger.Field{Key: "user_id", Value: req.UserID}, logger.Field{Key: "problem_id", Value: req.ProblemID})
		return echo.NewHTTPError(http.StatusInternalServerError, "submit failed")
	}

	return c.JSON(http.StatusAccepted, map[string]int{"submission_id": submissionID})
}

// GetSubmission implements get_submission_view(submission_id) (§6).
func (s *Server) GetSubmission(c echo.Context) error {
	idStr := c.Param("id")
	id, err := parseID(idStr)
	if err != nil {
		return echo.ErrNotFound
	}

	view, err := submissionView(s.db, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
