package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// Completion Payloads
// ---------------------------------------------------------------------------

// Grade labels SAP SuccessFactors accepts on OCN learning events
const (
	sapsfGradePass       = "Pass"
	sapsfGradeFail       = "Fail"
	sapsfGradeInProgress = "In Progress"

	// sapsfProviderID identifies this platform as the OCN content provider
	sapsfProviderID = "EDX"
)

// sapsfCompletionPayload is the OCN learning-event document
type sapsfCompletionPayload struct {
	UserID             string          `json:"userID"`
	CourseID           string          `json:"courseID"`
	ProviderID         string          `json:"providerID"`
	CourseCompleted    string          `json:"courseCompleted"`
	CompletedTimestamp int64           `json:"completedTimestamp"`
	Grade              string          `json:"grade"`
	TotalHours         decimal.Decimal `json:"totalHours"`
}

// degreedCompletionPayload is Degreed's provider completion document. The
// company identifier travels in a request header, not the body.
type degreedCompletionPayload struct {
	Email          string `json:"email"`
	ID             string `json:"id"`
	CompletionDate string `json:"completionDate"`
}

// moodleCompletionPayload mirrors the document the Moodle adapter decodes
type moodleCompletionPayload struct {
	CourseID string          `json:"courseID"`
	Grade    decimal.Decimal `json:"grade"`
}

// cornerstoneCompletionPayload mirrors the document the Cornerstone adapter
// decodes. SessionToken is left empty here so the adapter's configured
// fallback token applies.
type cornerstoneCompletionPayload struct {
	UserGUID     string          `json:"userGuid"`
	SessionToken string          `json:"sessionToken"`
	CourseID     string          `json:"courseId"`
	Status       string          `json:"status"`
	CompletedAt  string          `json:"completedTimestamp"`
	Successful   bool            `json:"successStatus"`
	Grade        json.RawMessage `json:"grade,omitempty"`
}

const cornerstoneStatusCompleted = "Completed"

// buildCompletionPayload serializes a completion record into the document the
// channel's adapter expects.
func buildCompletionPayload(code channel.Code, record *channel.LearnerCompletionRecord) ([]byte, error) {
	switch code {
	case channel.CodeSAPSuccessFactors:
		return json.Marshal(sapsfCompletionPayload{
			UserID:             record.RemoteUserID,
			CourseID:           record.CourseID,
			ProviderID:         sapsfProviderID,
			CourseCompleted:    strconv.FormatBool(record.CourseCompleted),
			CompletedTimestamp: epochMillis(record.CompletedAt),
			Grade:              sapsfGrade(record),
			TotalHours:         record.TotalHours,
		})
	case channel.CodeDegreed:
		return json.Marshal(degreedCompletionPayload{
			Email:          record.RemoteUserID,
			ID:             record.CourseID,
			CompletionDate: dateOrEmpty(record.CompletedAt, "2006-01-02T15:04:05"),
		})
	case channel.CodeMoodle:
		return json.Marshal(moodleCompletionPayload{
			CourseID: record.CourseID,
			Grade:    record.Grade,
		})
	case channel.CodeCornerstone:
		grade, err := json.Marshal(record.Grade)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cornerstoneCompletionPayload{
			UserGUID:    record.RemoteUserID,
			CourseID:    record.CourseID,
			Status:      cornerstoneStatusCompleted,
			CompletedAt: dateOrEmpty(record.CompletedAt, time.RFC3339),
			Successful:  record.Passed,
			Grade:       grade,
		})
	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrChannelUnknownCode, code)
	}
}

// sapsfGrade maps a completion record to the OCN grade label
func sapsfGrade(record *channel.LearnerCompletionRecord) string {
	switch {
	case !record.CourseCompleted:
		return sapsfGradeInProgress
	case record.Passed:
		return sapsfGradePass
	default:
		return sapsfGradeFail
	}
}

func epochMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func dateOrEmpty(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(layout)
}

// ---------------------------------------------------------------------------
// Assessment Payloads
// ---------------------------------------------------------------------------

// sapsfAssessmentPayload reports one graded subsection as an OCN learning
// event. Only SAP SuccessFactors accepts assessment-level reporting.
type sapsfAssessmentPayload struct {
	UserID         string          `json:"userID"`
	CourseID       string          `json:"courseID"`
	ProviderID     string          `json:"providerID"`
	SubsectionID   string          `json:"subsectionID"`
	SubsectionName string          `json:"subsectionName"`
	Grade          decimal.Decimal `json:"grade"`
	PointsEarned   decimal.Decimal `json:"pointsEarned"`
	PointsPossible decimal.Decimal `json:"pointsPossible"`
}

// buildAssessmentPayload serializes an assessment grade record for the channel
func buildAssessmentPayload(code channel.Code, record *channel.AssessmentGradeRecord) ([]byte, error) {
	switch code {
	case channel.CodeSAPSuccessFactors:
		return json.Marshal(sapsfAssessmentPayload{
			UserID:         record.RemoteUserID,
			CourseID:       record.CourseID,
			ProviderID:     sapsfProviderID,
			SubsectionID:   record.SubsectionID,
			SubsectionName: record.SubsectionName,
			Grade:          record.Grade,
			PointsEarned:   record.PointsEarned,
			PointsPossible: record.PointsPossible,
		})
	default:
		return nil, fmt.Errorf("%w: %s does not accept assessment-level reporting", channel.ErrChannelRequestFailed, code)
	}
}

// ---------------------------------------------------------------------------
// Content Payloads
// ---------------------------------------------------------------------------

// buildContentPayload serializes a chunk of content metadata items into the
// document the channel's adapter expects.
func buildContentPayload(code channel.Code, items []channel.ContentMetadataItem) ([]byte, error) {
	switch code {
	case channel.CodeSAPSuccessFactors:
		return json.Marshal(map[string]any{"ocnCourses": rawMetadata(items)})
	case channel.CodeDegreed:
		return json.Marshal(map[string]any{"courses": rawMetadata(items)})
	case channel.CodeMoodle:
		// each item's metadata is a flat field map; reindex into the
		// courses[i][field] parameter document the adapter posts
		params := make(map[string]string)
		for i, item := range items {
			var fields map[string]string
			if err := json.Unmarshal(item.Metadata, &fields); err != nil {
				return nil, fmt.Errorf("channel: invalid moodle course fields for %s: %w", item.ContentID, err)
			}
			for field, value := range fields {
				params[fmt.Sprintf("courses[%d][%s]", i, field)] = value
			}
		}
		return json.Marshal(params)
	case channel.CodeCornerstone:
		return json.Marshal(rawMetadata(items))
	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrChannelUnknownCode, code)
	}
}

func rawMetadata(items []channel.ContentMetadataItem) []json.RawMessage {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw = append(raw, item.Metadata)
	}
	return raw
}
