package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ppiankov/glosa/internal/extract"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/review"
	"github.com/ppiankov/glosa/internal/timesheet"
)

type chaptersResponse struct {
	Active   string              `json:"active"`
	Status   model.ProjectStatus `json:"status"`
	Chapters []model.Chapter     `json:"chapters"`
}

type chapterStateResponse struct {
	Chapter     string             `json:"chapter"`
	Characters  int                `json:"characters"`
	OverLimit   bool               `json:"over_limit"`
	Suggestions []model.Suggestion `json:"suggestions"`
	Score       model.Score        `json:"score"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type analyzeResponse struct {
	Suggestions []model.Suggestion `json:"suggestions"`
	Notices     []model.Notice     `json:"notices"`
	Error       string             `json:"error,omitempty"`
}

type fixResponse struct {
	Chapter   string `json:"chapter"`
	Changed   bool   `json:"changed"`
	Content   string `json:"content"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type statusRequest struct {
	Status model.ProjectStatus `json:"status"`
}

type hoursRequest struct {
	Project    *timesheet.Project `json:"project"`
	DayEntries []timesheet.Entry  `json:"day_entries"`
	Entry      timesheet.Entry    `json:"entry"`
}

func (s *Server) listRules(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Rules())
}

func (s *Server) listChapters(c echo.Context) error {
	return c.JSON(http.StatusOK, chaptersResponse{
		Active:   s.session.ActiveChapter(),
		Status:   s.session.ProjectStatus(),
		Chapters: s.session.Chapters(),
	})
}

func (s *Server) selectChapter(c echo.Context) error {
	if err := s.session.SelectChapter(c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.chapterState())
}

func (s *Server) setContent(c echo.Context) error {
	var req contentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := s.session.SetContent(c.Param("id"), req.Content); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.chapterState())
}

// analyze reviews the active chapter's current text. The caller gets the
// notices of its own request; superseded requests and inactive chapters
// answer 409.
func (s *Server) analyze(c echo.Context) error {
	if s.coordinator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "review service not configured")
	}

	id := c.Param("id")
	ch, ok := s.session.Chapter(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown chapter: "+id)
	}
	if s.session.ActiveChapter() != id {
		return echo.NewHTTPError(http.StatusConflict, "chapter is not active: "+id)
	}

	recorder := &review.Recorder{}
	ctx := review.WithNotifier(c.Request().Context(), recorder)
	items, err := s.coordinator.RequestAnalysis(ctx, id, extract.PlainText(ch.Content), ch.Title)

	resp := analyzeResponse{Suggestions: items, Notices: recorder.Notices()}
	if resp.Suggestions == nil {
		resp.Suggestions = []model.Suggestion{}
	}
	if err == nil {
		return c.JSON(http.StatusOK, resp)
	}

	resp.Error = err.Error()
	switch {
	case review.IsKind(err, review.InsufficientContent):
		return c.JSON(http.StatusUnprocessableEntity, resp)
	case review.IsKind(err, review.Superseded), review.IsKind(err, review.InactiveChapter):
		return c.JSON(http.StatusConflict, resp)
	default:
		return c.JSON(http.StatusBadGateway, resp)
	}
}

func (s *Server) fix(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.session.Chapter(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown chapter: "+id)
	}
	if s.session.ActiveChapter() != id {
		return echo.NewHTTPError(http.StatusConflict, "chapter is not active: "+id)
	}

	cs := s.session.Fix()
	return c.JSON(http.StatusOK, fixResponse{
		Chapter:   id,
		Changed:   cs.Changed(),
		Content:   cs.After,
		Patch:     cs.Patch,
		Additions: cs.Additions,
		Deletions: cs.Deletions,
	})
}

// listSuggestions supports ?kind= and ?status=pending filters
func (s *Server) listSuggestions(c echo.Context) error {
	var out []model.Suggestion
	if kind := model.SuggestionKind(c.QueryParam("kind")); kind != "" {
		if !kind.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid kind: "+string(kind))
		}
		out = s.session.ByKind(kind)
	} else {
		out = s.session.Suggestions()
	}

	if status := c.QueryParam("status"); status != "" {
		filtered := out[:0]
		for _, sg := range out {
			if string(sg.Status) == status {
				filtered = append(filtered, sg)
			}
		}
		out = filtered
	}
	if out == nil {
		out = []model.Suggestion{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) accept(c echo.Context) error {
	sg, err := s.session.Accept(c.Param("id"))
	if err != nil {
		return err
	}
	s.metrics.recordDecision(sg)
	return c.JSON(http.StatusOK, sg)
}

func (s *Server) reject(c echo.Context) error {
	sg, err := s.session.Reject(c.Param("id"))
	if err != nil {
		return err
	}
	s.metrics.recordDecision(sg)
	return c.JSON(http.StatusOK, sg)
}

func (s *Server) getScore(c echo.Context) error {
	score := s.session.Score()
	s.metrics.recordScore(score)
	return c.JSON(http.StatusOK, score)
}

func (s *Server) getReport(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Report())
}

func (s *Server) setProjectStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := s.session.SetProjectStatus(req.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]model.ProjectStatus{"status": s.session.ProjectStatus()})
}

func (s *Server) validateHours(c echo.Context) error {
	var req hoursRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, s.validator.Validate(req.Project, req.DayEntries, req.Entry))
}

func (s *Server) chapterState() chapterStateResponse {
	report := s.session.Report()
	return chapterStateResponse{
		Chapter:     s.session.ActiveChapter(),
		Characters:  report.Characters,
		OverLimit:   report.OverLimit,
		Suggestions: report.Suggestions,
		Score:       report.Score,
	}
}
