package api

import (
	"context"
	"testing"
	"time"

	"klask-tracker/internal/api/githubtest"
	"klask-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string) (*GitHubClient, *githubtest.Server) {
	t.Helper()
	srv := githubtest.NewServer("token")
	t.Cleanup(srv.Close)

	client := NewGitHubClient(config.GitHubConfig{
		Token:   token,
		Owner:   "club",
		Repo:    "klask-data",
		Branch:  "master",
		BaseURL: githubtest.BaseURL,
	}, WithDial(srv.Dial))
	return client, srv
}

func TestGetContentsMissing(t *testing.T) {
	client, _ := newTestClient(t, "token")

	_, err := client.GetContents(context.Background(), "data.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestPutThenGetContents(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t, "token")

	created, err := client.PutContents(ctx, "state/data.json", []byte(`{"players":[]}`), "", "initial")
	require.NoError(t, err)
	require.NotEmpty(t, created.Content.SHA)

	got, err := client.GetContents(ctx, "state/data.json")
	require.NoError(t, err)
	assert.Equal(t, created.Content.SHA, got.SHA)

	body, err := got.Decoded()
	require.NoError(t, err)
	assert.Equal(t, `{"players":[]}`, string(body))

	stored, sha, ok := srv.File("state/data.json")
	require.True(t, ok)
	assert.Equal(t, got.SHA, sha)
	assert.Equal(t, body, stored)

	rl := client.GetRateLimitInfo()
	assert.Equal(t, "core", rl.Resource)
	assert.Equal(t, 5000, rl.Limit)
}

func TestPutContentsStaleSHA(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t, "token")

	srv.Seed("data.json", []byte(`{}`))

	_, err := client.PutContents(ctx, "data.json", []byte(`{"players":[]}`), "deadbeef", "update")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = client.PutContents(ctx, "data.json", []byte(`{"players":[]}`), "", "update")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDecodedLargeContent(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t, "token")

	big := make([]byte, 4096)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	srv.Seed("data.json", big)

	got, err := client.GetContents(ctx, "data.json")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "\n")

	body, err := got.Decoded()
	require.NoError(t, err)
	assert.Equal(t, big, body)
}

func TestListCommits(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t, "token")

	srv.Seed("data.json", []byte(`{}`))
	srv.Seed("other.json", []byte(`{}`))
	_, sha, _ := srv.File("data.json")
	res, err := client.PutContents(ctx, "data.json", []byte(`{"games":[]}`), sha, "Match: Alice 6-4 Bob")
	require.NoError(t, err)

	commits, err := client.ListCommits(ctx, "data.json", 10)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, res.Commit.SHA, commits[0].SHA)
	assert.Equal(t, "Match: Alice 6-4 Bob", commits[0].Commit.Message)
	assert.True(t, commits[0].Commit.Author.Date.After(commits[1].Commit.Author.Date))
}

func TestBadCredentials(t *testing.T) {
	client, _ := newTestClient(t, "wrong")

	_, err := client.GetContents(context.Background(), "data.json")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Bad credentials", apiErr.Message)
}

func TestRequestHonoursDeadline(t *testing.T) {
	client, _ := newTestClient(t, "token")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.GetContents(ctx, "data.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
