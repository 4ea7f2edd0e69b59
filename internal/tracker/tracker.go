// Package tracker talks to the issue tracker hosting the students' repositories.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/environment"
)

// APIError is a non-2xx answer from the tracker.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: tracker answered %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

type Client struct {
	cfg  environment.Tracker
	http *http.Client
	log  *slog.Logger
}

func New(cfg environment.Tracker, client *http.Client, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: client, log: log}
}

// RepoName is the repository a student works in for a task.
func RepoName(student, task string) string {
	return student + "-" + task
}

func (c *Client) issuesURL(student, task string) (string, error) {
	return url.JoinPath(c.cfg.BaseURL, "repos", c.cfg.Org, RepoName(student, task), "issues")
}

func (c *Client) CreateIssue(ctx context.Context, student, task string, issue api.Issue) error {
	u, err := c.issuesURL(student, task)
	if err != nil {
		return err
	}
	body, err := json.Marshal(issue)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.log.Info("created issue", "repo", RepoName(student, task), "title", issue.Title)
	return nil
}

type issueTitle struct {
	Title string `json:"title"`
}

// ListIssueTitles returns the titles of the issues in the student's repository.
func (c *Client) ListIssueTitles(ctx context.Context, student, task string) ([]string, error) {
	u, err := c.issuesURL(student, task)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var issues []issueTitle
	if err := json.NewDecoder(resp.Body).Decode(&issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues of %s: %w", RepoName(student, task), err)
	}
	titles := make([]string, 0, len(issues))
	for _, i := range issues {
		titles = append(titles, i.Title)
	}
	return titles, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &APIError{Method: method, URL: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}
