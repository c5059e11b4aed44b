package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
	"github.com/Norgate-AV/labrun/internal/store"
)

const (
	maxCodeLength  = 64 * 1024
	maxInputLength = 8192
)

// ExecuteRequest is the body of POST /api/execute and of each WebSocket message
type ExecuteRequest struct {
	// ID is echoed back on WebSocket replies
	ID       string   `json:"id,omitempty"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Input    string   `json:"input"`
	Force    bool     `json:"force,omitempty"`
	Simulate bool     `json:"simulate,omitempty"`
	Args     []string `json:"args,omitempty"`
}

// Validate checks sizes; the language is checked by the dispatcher
func (r *ExecuteRequest) Validate() error {
	if len(r.Code) == 0 {
		return errors.New("code is required")
	}

	if len(r.Code) > maxCodeLength {
		return fmt.Errorf("code exceeds %d byte limit", maxCodeLength)
	}

	if len(r.Input) > maxInputLength {
		return fmt.Errorf("input exceeds %d byte limit", maxInputLength)
	}

	return nil
}

func (r *ExecuteRequest) options() execution.Options {
	return execution.Options{
		Force:    r.Force,
		Simulate: r.Simulate,
		Args:     r.Args,
	}
}

// SaveFileRequest is the body of PUT /api/files/:name
type SaveFileRequest struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

func (s *Server) handleLanguages(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, language.All())
}

func (s *Server) handleExecute(ctx *gin.Context) {
	var req ExecuteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.dispatcher.Execute(ctx.Request.Context(), language.Normalize(req.Language), req.Code, req.Input, req.options())
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) handleStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.dispatcher.Status())
}

func (s *Server) handleProbe(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.dispatcher.Probe(ctx.Request.Context()))
}

func (s *Server) handleListFiles(ctx *gin.Context) {
	if !s.requireSnippets(ctx) {
		return
	}

	snippets, err := s.snippets.List()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, snippets)
}

func (s *Server) handleGetFile(ctx *gin.Context) {
	if !s.requireSnippets(ctx) {
		return
	}

	snippet, err := s.snippets.Get(ctx.Param("name"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if snippet == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "snippet not found"})
		return
	}

	ctx.JSON(http.StatusOK, snippet)
}

func (s *Server) handleSaveFile(ctx *gin.Context) {
	if !s.requireSnippets(ctx) {
		return
	}

	var req SaveFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if len(req.Content) > maxCodeLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("content exceeds %d byte limit", maxCodeLength)})
		return
	}

	snippet, err := s.snippets.Save(ctx.Param("name"), language.Normalize(req.Language), req.Content)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, snippet)
}

func (s *Server) handleDeleteFile(ctx *gin.Context) {
	if !s.requireSnippets(ctx) {
		return
	}

	if err := s.snippets.Delete(ctx.Param("name")); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) requireSnippets(ctx *gin.Context) bool {
	if s.snippets == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "snippet storage is disabled"})
		return false
	}

	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, language.ErrUnsupported), errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
