package lmsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverConfig(serverURL string) *Config {
	cfg := testConfig()
	cfg.LMSBaseURL = serverURL
	cfg.CatalogBaseURL = serverURL
	return cfg
}

// ---------------------------------------------------------------------------
// HTTP Base Tests
// ---------------------------------------------------------------------------

func TestHTTPAPI_Do(t *testing.T) {
	t.Run("attaches JWT auth header", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		cfg := serverConfig(server.URL)
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, NewTokenSource(cfg))
		err := api.get(context.Background(), "/whoami", nil, nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(gotAuth, "JWT "))
		assert.Greater(t, len(gotAuth), len("JWT "))
	})

	t.Run("no auth header without token source", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		cfg := serverConfig(server.URL)
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
		err := api.get(context.Background(), "/heartbeat", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("404 maps to ErrNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		cfg := serverConfig(server.URL)
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
		err := api.get(context.Background(), "/missing", nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("500 maps to ErrRequestFailed with body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"detail":"boom"}`)
		}))
		defer server.Close()

		cfg := serverConfig(server.URL)
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
		err := api.get(context.Background(), "/broken", nil, nil)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.Contains(t, err.Error(), "HTTP 500")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("unreachable server maps to ErrUnavailable", func(t *testing.T) {
		cfg := serverConfig("http://127.0.0.1:1")
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
		err := api.get(context.Background(), "/heartbeat", nil, nil)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("garbage body maps to ErrInvalidResponse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `not json`)
		}))
		defer server.Close()

		cfg := serverConfig(server.URL)
		api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
		var out map[string]any
		err := api.get(context.Background(), "/garbage", nil, &out)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestHTTPAPI_GetAllPages(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprintf(w, `{"next":"%s/items?page=2","results":[{"id":1},{"id":2}]}`, server.URL)
		case "2":
			fmt.Fprint(w, `{"next":"","results":[{"id":3}]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	cfg := serverConfig(server.URL)
	api := newHTTPAPI(cfg.LMSBaseURL, cfg, nil)
	items, err := api.getAllPages(context.Background(), "/items", nil)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

// ---------------------------------------------------------------------------
// Enrollment Client Tests
// ---------------------------------------------------------------------------

func TestEnrollmentClient_GetCourseModes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/enrollment/v1/course/course-v1:edX+DemoX+Demo", r.URL.Path)
		fmt.Fprint(w, `{
			"course_id": "course-v1:edX+DemoX+Demo",
			"course_modes": [
				{"slug": "audit"},
				{"slug": "credit"},
				{"slug": "verified"},
				{"slug": "honor"}
			]
		}`)
	}))
	defer server.Close()

	client := NewEnrollmentClient(serverConfig(server.URL), nil)
	modes, err := client.GetCourseModes(context.Background(), "course-v1:edX+DemoX+Demo")
	require.NoError(t, err)

	// Excluded modes dropped, remainder sorted by preference
	slugs := make([]string, len(modes))
	for i, m := range modes {
		slugs[i] = m.Slug
	}
	assert.Equal(t, []string{"verified", "audit", "honor"}, slugs)
}

func TestEnrollmentClient_GetCourseEnrollment(t *testing.T) {
	t.Run("active enrollment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"user": "alice",
				"mode": "verified",
				"is_active": true,
				"course_details": {"course_id": "course-v1:edX+DemoX+Demo"}
			}`)
		}))
		defer server.Close()

		client := NewEnrollmentClient(serverConfig(server.URL), nil)
		enrollment, err := client.GetCourseEnrollment(context.Background(), "alice", "course-v1:edX+DemoX+Demo")
		require.NoError(t, err)
		require.NotNil(t, enrollment)
		assert.Equal(t, "verified", enrollment.Mode)
		assert.True(t, enrollment.IsActive)
	})

	t.Run("unknown user returns nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewEnrollmentClient(serverConfig(server.URL), nil)
		enrollment, err := client.GetCourseEnrollment(context.Background(), "nobody", "course-v1:edX+DemoX+Demo")
		require.NoError(t, err)
		assert.Nil(t, enrollment)
	})

	t.Run("no enrollment returns nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Valid user, no enrollment: the endpoint returns an empty body
		}))
		defer server.Close()

		client := NewEnrollmentClient(serverConfig(server.URL), nil)
		enrollment, err := client.GetCourseEnrollment(context.Background(), "alice", "course-v1:edX+DemoX+Demo")
		require.NoError(t, err)
		assert.Nil(t, enrollment)
	})
}

func TestEnrollmentClient_UnenrollUserFromCourse(t *testing.T) {
	t.Run("deactivates active enrollment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				fmt.Fprint(w, `{"user":"alice","mode":"audit","is_active":true,"course_details":{"course_id":"c1"}}`)
				return
			}
			fmt.Fprint(w, `{"user":"alice","mode":"audit","is_active":false,"course_details":{"course_id":"c1"}}`)
		}))
		defer server.Close()

		client := NewEnrollmentClient(serverConfig(server.URL), nil)
		unenrolled, err := client.UnenrollUserFromCourse(context.Background(), "alice", "c1")
		require.NoError(t, err)
		assert.True(t, unenrolled)
	})

	t.Run("already inactive is a no-op", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			fmt.Fprint(w, `{"user":"alice","mode":"audit","is_active":false,"course_details":{"course_id":"c1"}}`)
		}))
		defer server.Close()

		client := NewEnrollmentClient(serverConfig(server.URL), nil)
		unenrolled, err := client.UnenrollUserFromCourse(context.Background(), "alice", "c1")
		require.NoError(t, err)
		assert.False(t, unenrolled)
	})
}

// ---------------------------------------------------------------------------
// Grades Client Tests
// ---------------------------------------------------------------------------

func TestGradesClient_GetCourseGrade(t *testing.T) {
	t.Run("matching row", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "alice", r.URL.Query().Get("username"))
			fmt.Fprint(w, `[
				{"username": "alice2", "passed": false, "percent": 0.2},
				{"username": "alice", "course_key": "c1", "passed": true, "percent": 0.83, "letter_grade": "B"}
			]`)
		}))
		defer server.Close()

		client := NewGradesClient(serverConfig(server.URL), nil)
		grade, err := client.GetCourseGrade(context.Background(), "c1", "alice")
		require.NoError(t, err)
		assert.True(t, grade.Passed)
		assert.Equal(t, "B", grade.LetterGrade)
		assert.True(t, grade.Percent.Equal(decimal.NewFromFloat(0.83)))
	})

	t.Run("no row for user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
		defer server.Close()

		client := NewGradesClient(serverConfig(server.URL), nil)
		grade, err := client.GetCourseGrade(context.Background(), "c1", "alice")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, grade)
	})
}

func TestGradesClient_GetCourseAssessmentGrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("user_contains"))
		fmt.Fprint(w, `{
			"results": [
				{
					"username": "alice",
					"section_breakdown": [
						{"attempted": true, "subsection_name": "Week 1 Quiz", "category": "quiz",
						 "score_possible": 10, "score_earned": 8, "percent": 0.8,
						 "module_id": "block-v1:edX+DemoX+Demo+type@sequential+block@w1"}
					]
				}
			]
		}`)
	}))
	defer server.Close()

	client := NewGradesClient(serverConfig(server.URL), nil)
	grades, err := client.GetCourseAssessmentGrades(context.Background(), "c1", "alice")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "Week 1 Quiz", grades[0].SubsectionName)
	assert.True(t, grades[0].ScoreEarned.Equal(decimal.NewFromInt(8)))
}

// ---------------------------------------------------------------------------
// Third Party Auth Client Tests
// ---------------------------------------------------------------------------

func TestThirdPartyAuthClient_GetRemoteID(t *testing.T) {
	t.Run("mapping exists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/third_party_auth/v0/providers/saml-corp/users", r.URL.Path)
			fmt.Fprint(w, `{"results": [{"username": "alice", "remote_id": "alice@corp"}]}`)
		}))
		defer server.Close()

		client := NewThirdPartyAuthClient(serverConfig(server.URL), nil)
		remoteID, err := client.GetRemoteID(context.Background(), "saml-corp", "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@corp", remoteID)
	})

	t.Run("no mapping", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewThirdPartyAuthClient(serverConfig(server.URL), nil)
		remoteID, err := client.GetRemoteID(context.Background(), "saml-corp", "alice")
		require.NoError(t, err)
		assert.Empty(t, remoteID)
	})
}

// ---------------------------------------------------------------------------
// Catalog Client Tests
// ---------------------------------------------------------------------------

func TestCatalogClient_GetContentMetadata(t *testing.T) {
	catalogA := uuid.New()
	catalogB := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		switch {
		case strings.Contains(r.URL.Path, catalogA.String()):
			fmt.Fprint(w, `{"next":"","results":[
				{"key": "edX+DemoX", "content_type": "course"},
				{"uuid": "11111111-1111-1111-1111-111111111111", "content_type": "program"}
			]}`)
		case strings.Contains(r.URL.Path, catalogB.String()):
			// Duplicate of catalog A's course plus one new run
			fmt.Fprint(w, `{"next":"","results":[
				{"key": "edX+DemoX", "content_type": "course"},
				{"key": "course-v1:edX+DemoX+Demo", "content_type": "courserun"}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewCatalogClient(serverConfig(server.URL), nil)
	items, err := client.GetContentMetadata(context.Background(), []uuid.UUID{catalogA, catalogB})
	require.NoError(t, err)
	require.Len(t, items, 3)

	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.ContentKey
	}
	assert.Equal(t, []string{"edX+DemoX", "11111111-1111-1111-1111-111111111111", "course-v1:edX+DemoX+Demo"}, keys)
	assert.Equal(t, "program", items[1].ContentType)
}

func TestCatalogClient_ContainsContentItems(t *testing.T) {
	catalogUUID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"c1", "c2"}, r.URL.Query()["course_run_ids"])
		fmt.Fprint(w, `{"contains_content_items": true}`)
	}))
	defer server.Close()

	client := NewCatalogClient(serverConfig(server.URL), nil)
	contains, err := client.ContainsContentItems(context.Background(), catalogUUID, []string{"c1", "c2"})
	require.NoError(t, err)
	assert.True(t, contains)
}

func TestCatalogClient_RefreshCatalogs(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, bad.String()) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"async_task_id": "task-42"}`)
	}))
	defer server.Close()

	client := NewCatalogClient(serverConfig(server.URL), nil)
	refreshed, failed, err := client.RefreshCatalogs(context.Background(), []uuid.UUID{good, bad})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{good: "task-42"}, refreshed)
	assert.Equal(t, []uuid.UUID{bad}, failed)
}
