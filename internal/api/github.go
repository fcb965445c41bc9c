package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"klask-tracker/internal/config"

	"github.com/valyala/fasthttp"
)

var (
	ErrNotFound = errors.New("github: not found")
	ErrConflict = errors.New("github: sha conflict")
)

// APIError is a non-2xx reply from the GitHub API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github API error: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == fasthttp.StatusNotFound
	case ErrConflict:
		return e.Status == fasthttp.StatusConflict || e.Status == fasthttp.StatusUnprocessableEntity
	}
	return false
}

type GitHubClient struct {
	token   string
	owner   string
	repo    string
	branch  string
	baseURL string

	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Resource  string    `json:"resource"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GitHubOption func(*GitHubClient)

// WithDial routes every connection through dial. Tests use it with an
// in-memory listener.
func WithDial(dial fasthttp.DialFunc) GitHubOption {
	return func(c *GitHubClient) {
		c.client.Dial = dial
	}
}

func NewGitHubClient(cfg config.GitHubConfig, opts ...GitHubOption) *GitHubClient {
	c := &GitHubClient{
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  cfg.Branch,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     5000,
			Remaining: 5000,
			UpdatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GitHubClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *GitHubClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if resource := string(resp.Header.Peek("X-Ratelimit-Resource")); resource != "" {
		c.rateLimit.Resource = resource
	}
	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimit.Reset = time.Unix(val, 0).UTC()
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

type ContentsResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Decoded returns the file body. GitHub wraps base64 content at 60 columns.
func (r *ContentsResponse) Decoded() ([]byte, error) {
	if r.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q", r.Encoding)
	}
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(r.Content)
	return base64.StdEncoding.DecodeString(clean)
}

type PutContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type PutContentsResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit CommitRef `json:"commit"`
}

type CommitRef struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Message string `json:"message"`
}

type CommitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// GetContents fetches a file on the configured branch. A missing file
// yields an error matching ErrNotFound.
func (c *GitHubClient) GetContents(ctx context.Context, path string) (*ContentsResponse, error) {
	query := url.Values{}
	if c.branch != "" {
		query.Set("ref", c.branch)
	}
	return doRequest[ContentsResponse](ctx, c, fasthttp.MethodGet, c.contentsURL(path, query), nil)
}

// PutContents creates or updates a file as a single commit. sha must be the
// blob currently on the branch, or empty when creating the file.
func (c *GitHubClient) PutContents(ctx context.Context, path string, content []byte, sha, message string) (*PutContentsResponse, error) {
	body, err := json.Marshal(PutContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.branch,
	})
	if err != nil {
		return nil, err
	}
	return doRequest[PutContentsResponse](ctx, c, fasthttp.MethodPut, c.contentsURL(path, nil), body)
}

// ListCommits returns the newest commits touching path on the branch.
func (c *GitHubClient) ListCommits(ctx context.Context, path string, limit int) ([]CommitItem, error) {
	query := url.Values{}
	query.Set("path", strings.TrimLeft(path, "/"))
	query.Set("per_page", strconv.Itoa(limit))
	if c.branch != "" {
		query.Set("sha", c.branch)
	}
	u := fmt.Sprintf("%s/repos/%s/%s/commits?%s", c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), query.Encode())

	items, err := doRequest[[]CommitItem](ctx, c, fasthttp.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return *items, nil
}

func (c *GitHubClient) contentsURL(path string, query url.Values) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segments, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func doRequest[T any](ctx context.Context, client *GitHubClient, method, url string, body []byte) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "klask-tracker")
	if client.token != "" {
		req.Header.Set("Authorization", "Bearer "+client.token)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(resp.Body(), &apiErr)
		return nil, &APIError{Status: status, Message: apiErr.Message}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
