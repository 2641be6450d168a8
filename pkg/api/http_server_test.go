package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/common"
	"rollcall/pkg/config"
	"rollcall/pkg/core"
	"rollcall/pkg/monitor"
	"rollcall/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Count    int                    `json:"count"`
	Student  common.StudentRecord   `json:"student"`
	Students []common.StudentRecord `json:"students"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "rollcall.db")},
		Index:   config.IndexConfig{Kind: "bst"},
	}
	backend, err := storage.Open(cfg.Storage)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	registry, err := core.NewRegistry(cfg, backend, nil, monitor.NewLookupStats(reg))
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	return NewServer(registry, reg)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func seed(t *testing.T, s *Server) {
	t.Helper()
	for _, body := range []string{
		`{"enrollment_no":"E010","roll_no":10,"name":"Asha Patil","division_id":1}`,
		`{"enrollment_no":"E005","roll_no":5,"name":"Rohan Kulkarni","division_id":2}`,
		`{"enrollment_no":"E020","roll_no":20,"name":"Meera Patil","division_id":1}`,
	} {
		rec, _ := do(t, s, http.MethodPost, "/api/students", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEnrollAndLookup(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	rec, env := do(t, s, http.MethodGet, "/api/students/E005", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Rohan Kulkarni", env.Student.Name)

	rec, env = do(t, s, http.MethodGet, "/api/students/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Student not found", env.Message)

	rec, _ = do(t, s, http.MethodPost, "/api/students", `{"enrollment_no":"E005","roll_no":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/students", `{"name":"no keys"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/students", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndFilters(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	_, env := do(t, s, http.MethodGet, "/api/students", "")
	require.Len(t, env.Students, 3)
	assert.Equal(t, []string{"E005", "E010", "E020"},
		[]string{env.Students[0].EnrollmentNo, env.Students[1].EnrollmentNo, env.Students[2].EnrollmentNo})

	_, env = do(t, s, http.MethodGet, "/api/students?division_id=1", "")
	assert.Equal(t, 2, env.Count)

	_, env = do(t, s, http.MethodGet, "/api/students?name=PATIL", "")
	assert.Equal(t, 2, env.Count)

	rec, env := do(t, s, http.MethodGet, "/api/students?roll_no=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "E020", env.Student.EnrollmentNo)

	rec, _ = do(t, s, http.MethodGet, "/api/students?roll_no=99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodGet, "/api/students?division_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndWithdraw(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	rec, env := do(t, s, http.MethodPut, "/api/students/E010", `{"enrollment_no":"IGNORED","roll_no":11,"name":"Asha P.","division_id":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "E010", env.Student.EnrollmentNo)

	_, env = do(t, s, http.MethodGet, "/api/students/E010", "")
	assert.Equal(t, 11, env.Student.RollNo)

	rec, _ = do(t, s, http.MethodPut, "/api/students/E404", `{"roll_no":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodDelete, "/api/students/E010", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, s, http.MethodDelete, "/api/students/E010", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRebuildStatsAndMetrics(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)
	do(t, s, http.MethodGet, "/api/students/E005", "")

	rec, env := do(t, s, http.MethodPost, "/api/index/rebuild", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, env.Count)

	rec, _ = do(t, s, http.MethodGet, "/api/stats", "")
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(3), stats["student_count"])
	assert.Equal(t, "BST", stats["index_type"])
	assert.Equal(t, float64(2), stats["index_height"])

	rec, _ = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, m := range []string{"rollcall_lookups_total", "rollcall_mutations_total", "rollcall_index_rebuilds_total"} {
		assert.Contains(t, body, m)
	}
}

func TestShutdownDrainsServer(t *testing.T) {
	s := newTestServer(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err, "Serve returns nil after Shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}

	_, err = http.Get("http://" + lis.Addr().String() + "/health")
	assert.Error(t, err, "listener closed after Shutdown")
}
