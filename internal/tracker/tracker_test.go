package tracker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/tracker"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		titles []string
		want   string
	}{
		{nil, tracker.StatusNull},
		{[]string{"Question about task"}, tracker.StatusNull},
		{[]string{"pass"}, tracker.StatusPass},
		{[]string{"Komplettering: fix tests"}, tracker.StatusKomplettering},
		{[]string{"komp"}, tracker.StatusKomp},
		{[]string{"hello", "FAIL", "PASS"}, tracker.StatusFail},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tracker.Classify(tc.titles), "%v", tc.titles)
	}
	assert.True(t, tracker.IsPending(tracker.StatusKomp))
	assert.False(t, tracker.IsPending(tracker.StatusPass))
}

func newClient(t *testing.T, h http.Handler) *tracker.Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := environment.Default().Tracker
	cfg.BaseURL = srv.URL + "/api/v3"
	cfg.Token = "secret"
	return tracker.New(cfg, srv.Client(), logging.Discard())
}

func TestCreateIssue(t *testing.T) {
	var got api.Issue
	var auth, agent, path string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, agent, path = r.Header.Get("Authorization"), r.Header.Get("User-Agent"), r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.CreateIssue(context.Background(), "alice", "task-5", api.Issue{Title: "PASS", Body: "well done"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "AI-Grader", agent)
	assert.Equal(t, "/api/v3/repos/inda-25/alice-task-5/issues", path)
	assert.Equal(t, api.Issue{Title: "PASS", Body: "well done"}, got)
}

func TestCreateIssueRejected(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))

	err := c.CreateIssue(context.Background(), "alice", "task-5", api.Issue{Title: "PASS"})

	var apiErr *tracker.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Not Found")
}

func TestStatuses(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/repos/inda-25/alice-task-5/issues":
			_, _ = w.Write([]byte(`[{"title":"PASS"},{"title":"FAIL"}]`))
		case "/api/v3/repos/inda-25/bob-task-5/issues":
			_, _ = w.Write([]byte(`[{"title":"Komplettering"}]`))
		case "/api/v3/repos/inda-25/carol-task-5/issues":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	res := c.Statuses(context.Background(), []string{"alice", "bob", "carol", "dave"}, "task-5")
	require.Len(t, res, 4)
	assert.Equal(t, tracker.StatusPass, res[0].Status)
	assert.Equal(t, tracker.StatusKomplettering, res[1].Status)
	assert.Equal(t, tracker.StatusNull, res[2].Status)
	assert.NoError(t, res[2].Err)
	assert.Equal(t, tracker.StatusNull, res[3].Status)
	assert.Error(t, res[3].Err)
}
