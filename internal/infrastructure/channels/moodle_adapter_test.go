package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestMoodleConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *MoodleConfig
		wantErr error
	}{
		{
			name: "valid credentials config",
			config: &MoodleConfig{
				BaseURL:          "https://moodle.example.com",
				Username:         "wsuser",
				Password:         "wspass",
				ServiceShortName: "edx_integration",
			},
			wantErr: nil,
		},
		{
			name: "valid pre-issued token config",
			config: &MoodleConfig{
				BaseURL: "https://moodle.example.com",
				Token:   "abc123",
			},
			wantErr: nil,
		},
		{
			name:    "missing base URL",
			config:  &MoodleConfig{Username: "wsuser", Password: "wspass", ServiceShortName: "svc"},
			wantErr: ErrMoodleConfigMissingBaseURL,
		},
		{
			name:    "missing password without token",
			config:  &MoodleConfig{BaseURL: "https://moodle.example.com", Username: "wsuser", ServiceShortName: "svc"},
			wantErr: ErrMoodleConfigMissingPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.config.CategoryID > 0)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

// moodleTestServer serves the token endpoint plus a handler for webservice
// calls dispatched by wsfunction.
func moodleTestServer(t *testing.T, handle func(wsfunction string, r *http.Request, w http.ResponseWriter)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case moodleTokenPath:
			fmt.Fprint(w, `{"token": "ws-token-1"}`)
		case moodleAPIPath:
			wsfunction := r.URL.Query().Get("wsfunction")
			require.NotEmpty(t, wsfunction)
			assert.Equal(t, "ws-token-1", r.URL.Query().Get("wstoken"))
			handle(wsfunction, r, w)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func createTestMoodleAdapter(t *testing.T, serverURL string, customerID uuid.UUID) *MoodleAdapter {
	adapter, err := NewMoodleAdapter(nil)
	require.NoError(t, err)
	require.NoError(t, adapter.SetCustomerConfig(customerID, &MoodleConfig{
		BaseURL:          serverURL,
		Username:         "wsuser",
		Password:         "wspass",
		ServiceShortName: "edx_integration",
	}))
	return adapter
}

func TestMoodleAdapter_CreateCourseCompletion(t *testing.T) {
	customerID := uuid.New()

	t.Run("resolves course, module and user then updates grade", func(t *testing.T) {
		var gradeParams map[string]string
		server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
			switch wsfunction {
			case moodleFuncCoursesByField:
				assert.Equal(t, "idnumber", r.URL.Query().Get("field"))
				assert.Equal(t, "course-v1:edX+DemoX+Demo", r.URL.Query().Get("value"))
				fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
			case moodleFuncCourseContents:
				fmt.Fprint(w, `[{"name": "General", "modules": [
					{"id": 7, "name": "(edX integration) Final Grade", "modname": "assign"}
				]}]`)
			case moodleFuncEnrolledUsers:
				fmt.Fprint(w, `[{"id": 13, "email": "alice@corp.example.com"}]`)
			case moodleFuncUpdateGrades:
				gradeParams = map[string]string{
					"courseid":             r.URL.Query().Get("courseid"),
					"activityid":           r.URL.Query().Get("activityid"),
					"grades[0][studentid]": r.URL.Query().Get("grades[0][studentid]"),
					"grades[0][grade]":     r.URL.Query().Get("grades[0][grade]"),
				}
				fmt.Fprint(w, `0`)
			default:
				t.Fatalf("unexpected wsfunction %q", wsfunction)
			}
		})
		defer server.Close()

		adapter := createTestMoodleAdapter(t, server.URL, customerID)

		payload := []byte(`{"courseID": "course-v1:edX+DemoX+Demo", "grade": 0.83}`)
		resp, err := adapter.CreateCourseCompletion(context.Background(), customerID, "alice@corp.example.com", payload)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "42", gradeParams["courseid"])
		assert.Equal(t, "7", gradeParams["activityid"])
		assert.Equal(t, "13", gradeParams["grades[0][studentid]"])
		// Grade arrives in [0,1] and Moodle takes 0-100
		assert.Equal(t, "83", gradeParams["grades[0][grade]"])
	})

	t.Run("missing final grade module", func(t *testing.T) {
		server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
			switch wsfunction {
			case moodleFuncCoursesByField:
				fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
			case moodleFuncCourseContents:
				fmt.Fprint(w, `[{"name": "General", "modules": []}]`)
			}
		})
		defer server.Close()

		adapter := createTestMoodleAdapter(t, server.URL, customerID)

		payload := []byte(`{"courseID": "course-v1:edX+DemoX+Demo", "grade": 0.5}`)
		_, err := adapter.CreateCourseCompletion(context.Background(), customerID, "alice@corp.example.com", payload)
		require.Error(t, err)

		var clientErr *channel.ClientError
		require.ErrorAs(t, err, &clientErr)
		assert.Equal(t, http.StatusNotFound, clientErr.StatusCode)
	})

	t.Run("unknown grade error code", func(t *testing.T) {
		server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
			switch wsfunction {
			case moodleFuncCoursesByField:
				fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
			case moodleFuncCourseContents:
				fmt.Fprint(w, `[{"name": "General", "modules": [
					{"id": 7, "name": "(edX integration) Final Grade", "modname": "assign"}
				]}]`)
			case moodleFuncEnrolledUsers:
				fmt.Fprint(w, `[{"id": 13, "email": "alice@corp.example.com"}]`)
			case moodleFuncUpdateGrades:
				fmt.Fprint(w, `1`)
			}
		})
		defer server.Close()

		adapter := createTestMoodleAdapter(t, server.URL, customerID)

		payload := []byte(`{"courseID": "course-v1:edX+DemoX+Demo", "grade": 0.5}`)
		_, err := adapter.CreateCourseCompletion(context.Background(), customerID, "alice@corp.example.com", payload)
		assert.Error(t, err)
	})
}

func TestMoodleAdapter_InvalidTokenRetry(t *testing.T) {
	customerID := uuid.New()
	tokenCalls := 0
	wsCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case moodleTokenPath:
			tokenCalls++
			fmt.Fprintf(w, `{"token": "ws-token-%d"}`, tokenCalls)
		case moodleAPIPath:
			wsCalls++
			if r.URL.Query().Get("wstoken") == "ws-token-1" {
				fmt.Fprint(w, `{"errorcode": "invalidtoken", "message": "Invalid token"}`)
				return
			}
			fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
		}
	}))
	defer server.Close()

	adapter := createTestMoodleAdapter(t, server.URL, customerID)

	courseID, err := adapter.getCourseID(context.Background(), customerID, "course-v1:edX+DemoX+Demo")
	require.NoError(t, err)
	assert.Equal(t, 42, courseID)
	assert.Equal(t, 2, tokenCalls)
	assert.Equal(t, 2, wsCalls)
}

func TestMoodleAdapter_DeleteContentMetadata(t *testing.T) {
	customerID := uuid.New()

	t.Run("deletes existing course", func(t *testing.T) {
		var deletedID string
		server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
			switch wsfunction {
			case moodleFuncCoursesByField:
				fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
			case moodleFuncDeleteCourses:
				deletedID = r.URL.Query().Get("courseids[0]")
				fmt.Fprint(w, `{}`)
			}
		})
		defer server.Close()

		adapter := createTestMoodleAdapter(t, server.URL, customerID)

		serialized := []byte(`{"courses[0][shortname]": "course-v1:edX+DemoX+Demo"}`)
		_, err := adapter.DeleteContentMetadata(context.Background(), customerID, serialized)
		require.NoError(t, err)
		assert.Equal(t, "42", deletedID)
	})

	t.Run("missing course is treated as deleted", func(t *testing.T) {
		server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
			fmt.Fprint(w, `{"courses": []}`)
		})
		defer server.Close()

		adapter := createTestMoodleAdapter(t, server.URL, customerID)

		serialized := []byte(`{"courses[0][shortname]": "gone"}`)
		resp, err := adapter.DeleteContentMetadata(context.Background(), customerID, serialized)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Body, "Course not found")
	})
}

func TestMoodleAdapter_UpdateContentMetadata(t *testing.T) {
	customerID := uuid.New()
	var gotCourseID string
	server := moodleTestServer(t, func(wsfunction string, r *http.Request, w http.ResponseWriter) {
		switch wsfunction {
		case moodleFuncCoursesByField:
			fmt.Fprint(w, `{"courses": [{"id": 42}]}`)
		case moodleFuncUpdateCourses:
			gotCourseID = r.URL.Query().Get("courses[0][id]")
			fmt.Fprint(w, `{"warnings": []}`)
		}
	})
	defer server.Close()

	adapter := createTestMoodleAdapter(t, server.URL, customerID)

	serialized := []byte(`{"courses[0][shortname]": "course-v1:edX+DemoX+Demo", "courses[0][fullname]": "Demo Course"}`)
	_, err := adapter.UpdateContentMetadata(context.Background(), customerID, serialized)
	require.NoError(t, err)
	assert.Equal(t, "42", gotCourseID)
}
