package channel

import (
	"context"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/infrastructure/channels"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
)

// Narrow views of the platform API clients the exporters consume. Defined
// here so tests can substitute them without standing up HTTP servers.

// CertificateFetcher reads course certificates from the platform
type CertificateFetcher interface {
	GetCourseCertificate(ctx context.Context, courseID, username string) (*lmsapi.Certificate, error)
}

// GradeFetcher reads course and subsection grades from the platform
type GradeFetcher interface {
	GetCourseGrade(ctx context.Context, courseID, username string) (*lmsapi.CourseGrade, error)
	GetCourseAssessmentGrades(ctx context.Context, courseID, username string) ([]lmsapi.AssessmentGrade, error)
}

// CourseFetcher reads course run metadata from the platform
type CourseFetcher interface {
	GetCourseDetails(ctx context.Context, courseID string) (*lmsapi.CourseDetails, error)
}

// RemoteIDResolver maps platform usernames to channel-side identifiers
// through the customer's SSO identity provider.
type RemoteIDResolver interface {
	GetRemoteID(ctx context.Context, identityProvider, username string) (string, error)
	GetUsernameFromRemoteID(ctx context.Context, identityProvider, remoteID string) (string, error)
}

// CatalogContentFetcher reads content metadata from the catalog service
type CatalogContentFetcher interface {
	GetContentMetadata(ctx context.Context, catalogUUIDs []uuid.UUID) ([]lmsapi.CatalogContentItem, error)
}

// InactiveLearnerFetcher lists channel-side users flagged inactive. Offered
// by channels whose user directory can be queried (SAP SuccessFactors).
type InactiveLearnerFetcher interface {
	GetInactiveLearners(ctx context.Context, customerID uuid.UUID) ([]channels.SAPSFLearner, error)
}
