package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/resumatch/internal/adapters/repository"
	service "github.com/okian/resumatch/internal/app"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
)

type mockDeps struct {
	started   bool
	roles     map[int64]model.Role
	cands     map[int64]model.Candidate
	submitErr error
	suggest   func(id int64) (model.Suggestion, error)
	submitted []byte
	lastLimit int
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		started: true,
		roles:   map[int64]model.Role{},
		cands:   map[int64]model.Candidate{},
	}
}

func (m *mockDeps) CreateRole(_ context.Context, title, desc string, req *string) (model.Role, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(desc) == "" {
		return model.Role{}, fmt.Errorf("%w: title required", service.ErrInvalidInput)
	}
	r := model.Role{ID: int64(len(m.roles) + 1), Title: title, Description: desc, Requirements: req, Embedding: []float64{1}, CreatedAt: time.Now()}
	m.roles[r.ID] = r
	return r, nil
}

func (m *mockDeps) GetRole(_ context.Context, id int64) (model.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return model.Role{}, repository.ErrRoleNotFound
	}
	return r, nil
}

func (m *mockDeps) ListCandidates(_ context.Context, roleID int64, limit int) ([]types.RankedCandidate, error) {
	m.lastLimit = limit
	if _, ok := m.roles[roleID]; !ok {
		return nil, repository.ErrRoleNotFound
	}
	score := 87.5
	return []types.RankedCandidate{{Rank: 1, CandidateID: 7, Filename: "a.pdf", Status: "analyzed", MatchScore: &score}}, nil
}

func (m *mockDeps) Submit(_ context.Context, roleID int64, filename string, content []byte) (model.Candidate, error) {
	if m.submitErr != nil {
		return model.Candidate{}, m.submitErr
	}
	if _, ok := m.roles[roleID]; !ok {
		return model.Candidate{}, repository.ErrRoleNotFound
	}
	m.submitted = content
	c := model.Candidate{ID: int64(len(m.cands) + 1), RoleID: roleID, Filename: filename, Status: model.StatusPending}
	m.cands[c.ID] = c
	return c, nil
}

func (m *mockDeps) GetCandidate(_ context.Context, id int64) (model.Candidate, error) {
	c, ok := m.cands[id]
	if !ok {
		return model.Candidate{}, repository.ErrCandidateNotFound
	}
	return c, nil
}

func (m *mockDeps) Suggest(_ context.Context, id int64) (model.Suggestion, error) {
	if m.suggest != nil {
		return m.suggest(id)
	}
	return model.Suggestion{OverallAssessment: "fine"}, nil
}

func (m *mockDeps) GetStats(context.Context) (types.Stats, error) {
	return types.Stats{Roles: len(m.roles), Pending: len(m.cands)}, nil
}

func (m *mockDeps) Started() bool { return m.started }

func do(h http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(roleID, filename string, content []byte) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if roleID != "" {
		_ = w.WriteField("role_id", roleID)
	}
	if filename != "" {
		part, _ := w.CreateFormFile("file", filename)
		_, _ = part.Write(content)
	}
	_ = w.Close()
	return buf, w.FormDataContentType()
}

func decodeError(rec *httptest.ResponseRecorder) errorResponse {
	var e errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &e)
	return e
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given a server over mock dependencies", t, func() {
		deps := newMockDeps()
		h := NewServer(deps, WithMaxUploadBytes(1<<10)).Handler()

		Convey("Root and health respond", func() {
			rec := do(h, http.MethodGet, "/", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "Welcome to ResuMatch API")

			rec = do(h, http.MethodGet, "/healthz", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			deps.started = false
			rec = do(h, http.MethodGet, "/healthz", nil, "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Metrics are exposed in text format", func() {
			rec := do(h, http.MethodGet, "/metrics", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Creating a role returns 201", func() {
			rec := do(h, http.MethodPost, "/api/v1/roles",
				bytes.NewBufferString(`{"title":"Go Engineer","description":"Build APIs","requirements":"Go"}`), "application/json")
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var got roleResponse
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got.ID, ShouldEqual, 1)
			So(got.HasEmbedding, ShouldBeTrue)
			So(*got.Requirements, ShouldEqual, "Go")

			Convey("And it can be fetched", func() {
				rec := do(h, http.MethodGet, "/api/v1/roles/1", nil, "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "Go Engineer")
			})
		})

		Convey("Invalid role payloads are rejected", func() {
			rec := do(h, http.MethodPost, "/api/v1/roles", bytes.NewBufferString(`{"title":" ","description":"x"}`), "application/json")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec).Code, ShouldEqual, codeBadRequest)

			rec = do(h, http.MethodPost, "/api/v1/roles", bytes.NewBufferString(`{`), "application/json")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown ids map to 404 and malformed ids to 400", func() {
			rec := do(h, http.MethodGet, "/api/v1/roles/42", nil, "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(rec).Code, ShouldEqual, codeRoleNotFound)

			rec = do(h, http.MethodGet, "/api/v1/candidates/42", nil, "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(rec).Code, ShouldEqual, codeCandidateNotFound)

			rec = do(h, http.MethodGet, "/api/v1/roles/abc", nil, "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Uploading a resume", func() {
			_, _ = deps.CreateRole(context.Background(), "Go Engineer", "Build APIs", nil)

			Convey("Queues it and answers 202 pending", func() {
				body, ct := upload("1", "cv.pdf", []byte("%PDF-1.4"))
				rec := do(h, http.MethodPost, "/api/v1/analyze", body, ct)
				So(rec.Code, ShouldEqual, http.StatusAccepted)

				var got analyzeResponse
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.CandidateID, ShouldEqual, 1)
				So(got.Filename, ShouldEqual, "cv.pdf")
				So(got.Status, ShouldEqual, "pending")
				So(string(deps.submitted), ShouldEqual, "%PDF-1.4")

				rec = do(h, http.MethodGet, "/api/v1/candidates/1", nil, "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"pending"`)
			})

			Convey("Missing file or role id is a bad request", func() {
				body, ct := upload("1", "", nil)
				So(do(h, http.MethodPost, "/api/v1/analyze", body, ct).Code, ShouldEqual, http.StatusBadRequest)

				body, ct = upload("", "cv.pdf", []byte("x"))
				So(do(h, http.MethodPost, "/api/v1/analyze", body, ct).Code, ShouldEqual, http.StatusBadRequest)

				body, ct = upload("zero", "cv.pdf", []byte("x"))
				So(do(h, http.MethodPost, "/api/v1/analyze", body, ct).Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("An unknown role is 404", func() {
				body, ct := upload("9", "cv.pdf", []byte("x"))
				So(do(h, http.MethodPost, "/api/v1/analyze", body, ct).Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Oversized uploads are 413", func() {
				body, ct := upload("1", "cv.pdf", bytes.Repeat([]byte("a"), 4<<10))
				rec := do(h, http.MethodPost, "/api/v1/analyze", body, ct)
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(rec).Code, ShouldEqual, codeFileTooLarge)
			})

			Convey("A full queue is 429", func() {
				deps.submitErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
				body, ct := upload("1", "cv.pdf", []byte("x"))
				rec := do(h, http.MethodPost, "/api/v1/analyze", body, ct)
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(rec).Code, ShouldEqual, codeBackpressure)
			})
		})

		Convey("Listing candidates", func() {
			_, _ = deps.CreateRole(context.Background(), "Go Engineer", "Build APIs", nil)

			rec := do(h, http.MethodGet, "/api/v1/roles/1/candidates?limit=5", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 5)

			var got rankingResponse
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got.RoleID, ShouldEqual, 1)
			So(got.Candidates, ShouldHaveLength, 1)
			So(*got.Candidates[0].MatchScore, ShouldEqual, 87.5)

			So(do(h, http.MethodGet, "/api/v1/roles/1/candidates?limit=-1", nil, "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/api/v1/roles/2/candidates", nil, "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Suggestion errors map by state", func() {
			cases := map[error]int{
				service.ErrResumeNotProcessed:                        http.StatusConflict,
				service.ErrAnalysisFailed:                            http.StatusUnprocessableEntity,
				repository.ErrCandidateNotFound:                      http.StatusNotFound,
				service.ErrNotStarted:                                http.StatusServiceUnavailable,
				fmt.Errorf("disk on fire"):                           http.StatusInternalServerError,
				fmt.Errorf("wrapped: %w", service.ErrAnalysisFailed): http.StatusUnprocessableEntity,
			}
			for err, status := range cases {
				deps.suggest = func(int64) (model.Suggestion, error) { return model.Suggestion{}, err }
				So(do(h, http.MethodGet, "/api/v1/candidates/1/suggestions", nil, "").Code, ShouldEqual, status)
			}

			deps.suggest = nil
			rec := do(h, http.MethodGet, "/api/v1/candidates/1/suggestions", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"overall_assessment":"fine"`)
		})

		Convey("Stats are returned as JSON", func() {
			rec := do(h, http.MethodGet, "/api/v1/stats", nil, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"queue_size"`)
		})
	})
}

func TestOpsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given the operational handler", t, func() {
		h := NewServer(newMockDeps()).OpsHandler()

		So(do(h, http.MethodGet, "/healthz", nil, "").Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodGet, "/metrics", nil, "").Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodGet, "/api/v1/stats", nil, "").Code, ShouldEqual, http.StatusNotFound)
	})
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given a server with an allowed origin", t, func() {
		h := NewServer(newMockDeps(), WithCORSOrigins([]string{"http://localhost:3000"})).Handler()

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:3000")
	})
}
