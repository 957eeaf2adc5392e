package lmsapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// CourseGrade is the grades API's summary for one learner in one course
type CourseGrade struct {
	Username    string          `json:"username"`
	CourseKey   string          `json:"course_key"`
	Passed      bool            `json:"passed"`
	Percent     decimal.Decimal `json:"percent"`
	LetterGrade string          `json:"letter_grade"`
}

// AssessmentGrade is one graded subsection from the gradebook endpoint
type AssessmentGrade struct {
	Attempted      bool            `json:"attempted"`
	SubsectionName string          `json:"subsection_name"`
	Category       string          `json:"category"`
	Label          string          `json:"label"`
	ScorePossible  decimal.Decimal `json:"score_possible"`
	ScoreEarned    decimal.Decimal `json:"score_earned"`
	Percent        decimal.Decimal `json:"percent"`
	ModuleID       string          `json:"module_id"`
}

type gradebookRow struct {
	Username         string            `json:"username"`
	SectionBreakdown []AssessmentGrade `json:"section_breakdown"`
}

// GradesClient calls the LMS Grades API
type GradesClient struct {
	api *httpAPI
}

// NewGradesClient creates a grades API client
func NewGradesClient(cfg *Config, tokens *TokenSource) *GradesClient {
	return &GradesClient{api: newHTTPAPI(cfg.LMSBaseURL, cfg, tokens)}
}

// GetCourseGrade returns the learner's overall grade for the course run.
// Returns ErrNotFound when the API has no grade row for the user.
func (c *GradesClient) GetCourseGrade(ctx context.Context, courseID, username string) (*CourseGrade, error) {
	path := fmt.Sprintf("/api/grades/v1/courses/%s/", url.PathEscape(courseID))
	query := url.Values{"username": []string{username}}

	var rows []CourseGrade
	if err := c.api.get(ctx, path, query, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Username == username {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no grade for course=%s username=%s", ErrNotFound, courseID, username)
}

// GetCourseAssessmentGrades returns the learner's per-subsection grades.
// Returns ErrNotFound when the gradebook has no row for the user.
func (c *GradesClient) GetCourseAssessmentGrades(ctx context.Context, courseID, username string) ([]AssessmentGrade, error) {
	path := fmt.Sprintf("/api/grades/v1/gradebook/%s/", url.PathEscape(courseID))
	query := url.Values{"user_contains": []string{username}}

	var page struct {
		Results []gradebookRow `json:"results"`
	}
	if err := c.api.get(ctx, path, query, &page); err != nil {
		return nil, err
	}
	for _, row := range page.Results {
		if row.Username == username {
			return row.SectionBreakdown, nil
		}
	}
	return nil, fmt.Errorf("%w: no assessment grades for course=%s username=%s", ErrNotFound, courseID, username)
}
