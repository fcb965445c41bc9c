// Package githubtest runs an in-memory stand-in for the subset of the GitHub
// REST API the storage layer uses: file contents and commit listings.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const BaseURL = "http://github.test"

type file struct {
	content []byte
	sha     string
}

type commit struct {
	sha     string
	path    string
	message string
	date    time.Time
}

type Server struct {
	Token string

	mu       sync.Mutex
	files    map[string]file
	commits  []commit
	seq      int
	failNext int

	ln  *fasthttputil.InmemoryListener
	srv *fasthttp.Server
}

func NewServer(token string) *Server {
	s := &Server{
		Token: token,
		files: make(map[string]file),
		ln:    fasthttputil.NewInmemoryListener(),
	}
	s.srv = &fasthttp.Server{Handler: s.handle}
	go s.srv.Serve(s.ln)
	return s
}

func (s *Server) Close() {
	s.srv.Shutdown()
	s.ln.Close()
}

// Dial connects a fasthttp client to the server regardless of address.
func (s *Server) Dial(string) (net.Conn, error) {
	return s.ln.Dial()
}

// Seed places a file as if it had been committed out of band.
func (s *Server) Seed(path string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(path, content, "seed")
}

func (s *Server) File(path string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	return f.content, f.sha, ok
}

// FailNext makes the next n requests answer 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

func (s *Server) commit(path string, content []byte, message string) string {
	s.seq++
	sum := sha1.Sum([]byte(strconv.Itoa(s.seq) + ":" + string(content)))
	sha := hex.EncodeToString(sum[:])

	s.files[path] = file{content: append([]byte(nil), content...), sha: sha}
	s.commits = append(s.commits, commit{
		sha:     sha,
		path:    path,
		message: message,
		date:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Minute),
	})
	return sha
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx.Response.Header.Set("X-RateLimit-Limit", "5000")
	ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(5000-s.seq))
	ctx.Response.Header.Set("X-RateLimit-Resource", "core")

	if s.failNext > 0 {
		s.failNext--
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"message": "unavailable"})
		return
	}
	if s.Token != "" && string(ctx.Request.Header.Peek("Authorization")) != "Bearer "+s.Token {
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	// /repos/{owner}/{repo}/{kind}/{path...}
	parts := strings.SplitN(strings.TrimPrefix(string(ctx.Path()), "/"), "/", 5)
	if len(parts) < 4 || parts[0] != "repos" {
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	switch {
	case parts[3] == "contents" && len(parts) == 5 && ctx.IsGet():
		s.getContents(ctx, parts[4])
	case parts[3] == "contents" && len(parts) == 5 && ctx.IsPut():
		s.putContents(ctx, parts[4])
	case parts[3] == "commits" && ctx.IsGet():
		s.listCommits(ctx)
	default:
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (s *Server) getContents(ctx *fasthttp.RequestCtx, path string) {
	f, ok := s.files[path]
	if !ok {
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"type":     "file",
		"path":     path,
		"sha":      f.sha,
		"size":     len(f.content),
		"encoding": "base64",
		"content":  wrap(base64.StdEncoding.EncodeToString(f.content), 60),
	})
}

func (s *Server) putContents(ctx *fasthttp.RequestCtx, path string) {
	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
		return
	}

	current, exists := s.files[path]
	switch {
	case exists && req.SHA == "":
		writeJSON(ctx, fasthttp.StatusUnprocessableEntity, map[string]string{"message": `"sha" wasn't supplied.`})
		return
	case exists && req.SHA != current.sha:
		writeJSON(ctx, fasthttp.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, req.SHA)})
		return
	}

	sha := s.commit(path, content, req.Message)
	status := fasthttp.StatusOK
	if !exists {
		status = fasthttp.StatusCreated
	}
	writeJSON(ctx, status, map[string]any{
		"content": map[string]string{"path": path, "sha": sha},
		"commit":  map[string]string{"sha": sha, "message": req.Message},
	})
}

func (s *Server) listCommits(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	path := string(args.Peek("path"))
	limit, err := strconv.Atoi(string(args.Peek("per_page")))
	if err != nil || limit <= 0 {
		limit = 30
	}

	matching := make([]commit, 0, len(s.commits))
	for _, c := range s.commits {
		if path == "" || c.path == path {
			matching = append(matching, c)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].date.After(matching[j].date) })
	if len(matching) > limit {
		matching = matching[:limit]
	}

	out := make([]map[string]any, len(matching))
	for i, c := range matching {
		out[i] = map[string]any{
			"sha": c.sha,
			"commit": map[string]any{
				"message": c.message,
				"author":  map[string]any{"name": "klask", "date": c.date.Format(time.RFC3339)},
			},
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, _ := json.Marshal(v)
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}
