package codehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Commit describes the result of a create-or-update push.
type Commit struct {
	SHA     string
	HTMLURL string
}

// GitHubClient pushes files into a GitHub repository through the contents
// API. A put is idempotent on path: when the file already exists its blob SHA
// is fetched first and included so the call becomes an update.
type GitHubClient struct {
	baseURL string
	owner   string
	repo    string
	branch  string
	token   string
	client  *http.Client
}

// Options configures the GitHub client.
type Options struct {
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string
	Timeout time.Duration
}

// NewGitHubClient builds a contents-API client.
func NewGitHubClient(opts Options) (*GitHubClient, error) {
	if opts.Owner == "" || opts.Repo == "" || opts.Token == "" {
		return nil, fmt.Errorf("codehost: owner, repo and token are required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	branch := opts.Branch
	if branch == "" {
		branch = "main"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GitHubClient{
		baseURL: baseURL,
		owner:   opts.Owner,
		repo:    opts.Repo,
		branch:  branch,
		token:   opts.Token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// PutFile creates or updates a file at path and returns the resulting commit
// reference. Any network failure or non-2xx response surfaces as a single
// error.
func (c *GitHubClient) PutFile(ctx context.Context, path string, content []byte, commitMessage string) (*Commit, error) {
	sha, err := c.existingSHA(ctx, path)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"message": commitMessage,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode contents payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build contents request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push file to repository: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("repository rejected file %q: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed struct {
		Content struct {
			SHA     string `json:"sha"`
			HTMLURL string `json:"html_url"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode contents response: %w", err)
	}
	return &Commit{SHA: parsed.Content.SHA, HTMLURL: parsed.Content.HTMLURL}, nil
}

// existingSHA fetches the current blob SHA for path; empty when the file does
// not exist yet.
func (c *GitHubClient) existingSHA(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contentsURL(path), nil)
	if err != nil {
		return "", fmt.Errorf("build contents lookup: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("look up existing file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed struct {
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", fmt.Errorf("decode contents lookup: %w", err)
		}
		return parsed.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("look up existing file %q: status %d", path, resp.StatusCode)
	}
}

func (c *GitHubClient) contentsURL(path string) string {
	escaped := url.PathEscape(path)
	// PathEscape also escapes the separators we want to keep.
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.baseURL, c.owner, c.repo, escaped, url.QueryEscape(c.branch))
}

func (c *GitHubClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
