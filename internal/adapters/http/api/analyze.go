package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/okian/resumatch/internal/domain/model"
)

type analyzeResponse struct {
	CandidateID int64  `json:"candidate_id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// handleAnalyze accepts a multipart upload with fields file and role_id.
// The analysis runs asynchronously; the response is 202 with a pending record.
func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			s.fail(c, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxUploadBytes))
			return
		}
		s.fail(c, fmt.Errorf("%w: file: %w", ErrBadRequest, err))
		return
	}
	roleID, err := strconv.ParseInt(c.PostForm("role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		s.fail(c, fmt.Errorf("%w: role_id must be a positive integer", ErrBadRequest))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("%w: open upload: %w", ErrBadRequest, err))
		return
	}
	defer func() { _ = f.Close() }()
	content, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: read upload: %w", ErrBadRequest, err))
		return
	}

	cand, err := s.deps.Submit(c.Request.Context(), roleID, fh.Filename, content)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, analyzeResponse{
		CandidateID: cand.ID,
		Filename:    cand.Filename,
		Status:      string(model.StatusPending),
		Message:     "Resume queued for analysis",
	})
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// some multipart paths flatten the error into a string.
	return strings.Contains(err.Error(), "request body too large")
}
