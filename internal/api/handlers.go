package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"callcheck/internal/blob"
	"callcheck/internal/logging"
	"callcheck/internal/request"
	"callcheck/internal/services"
)

type submitRequest struct {
	AudioURL  string   `json:"audio_url" binding:"required"`
	Sentences []string `json:"sentences" binding:"required"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

type sentenceView struct {
	PlainText      string `json:"plain_text"`
	WasPresent     bool   `json:"was_present"`
	StartWordIndex *int   `json:"start_word_index"`
	EndWordIndex   *int   `json:"end_word_index"`
}

type resultsResponse struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id"`
	AudioURL      string         `json:"audio_url"`
	TranscriptURL *string        `json:"transcript_url"`
	Status        string         `json:"status"`
	Sentences     []sentenceView `json:"sentences"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.intake.Create(c.Request.Context(), body.AudioURL, body.Sentences)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("submission failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create analysis request"})
		return
	}

	c.JSON(http.StatusCreated, submitResponse{
		RequestID: rec.ID,
		Message:   "analysis request accepted",
	})
}

func (s *Server) handleResults(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required"})
		return
	}

	rec, err := s.store.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown request_id"})
			return
		}
		s.logger.Error("result lookup failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis request"})
		return
	}

	sentences := make([]sentenceView, len(rec.Sentences))
	for i, sentence := range rec.Sentences {
		sentences[i] = sentenceView{
			PlainText:      sentence.PlainText,
			WasPresent:     sentence.WasPresent,
			StartWordIndex: sentence.StartWordIndex,
			EndWordIndex:   sentence.EndWordIndex,
		}
	}

	response := resultsResponse{
		ID:        rec.ID,
		RequestID: rec.ID,
		AudioURL:  rec.AudioURL,
		Status:    string(rec.Status),
		Sentences: sentences,
	}
	if rec.Status == request.StatusCompleted && rec.TranscriptPath != "" {
		link := s.signer.SignedURL(requestScheme(c)+"://"+c.Request.Host, rec.TranscriptPath)
		response.TranscriptURL = &link
	}

	c.JSON(http.StatusOK, response)
}

// requestScheme picks the scheme for links minted from this request. A
// TLS-terminating proxy announces the original scheme via X-Forwarded-Proto.
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func (s *Server) handleFiles(c *gin.Context) {
	key := c.Query("key")
	if err := s.signer.Verify(key, c.Query("exp"), c.Query("sig")); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, blob.ErrMalformedLink) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	reader, err := s.blobs.GetObject(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}
		s.logger.Error("object read failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read object"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		s.logger.Warn("object download interrupted", logging.Error(err))
	}
}

// statusResponse is the daemon health document.
type statusResponse struct {
	Running   bool           `json:"running"`
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	LastError string         `json:"last_error,omitempty"`
	Queue     map[string]int `json:"queue"`
	Records   map[string]int `json:"records"`
}

func (s *Server) handleStatus(c *gin.Context) {
	response := statusResponse{
		Queue:   make(map[string]int),
		Records: make(map[string]int),
	}

	if s.manager != nil {
		status := s.manager.Status()
		response.Running = status.Running
		response.Processed = status.Processed
		response.Failed = status.Failed
		response.LastError = status.LastError
	}

	if queueStats, err := s.queue.Stats(c.Request.Context()); err == nil {
		response.Queue = queueStats
	}
	if recordStats, err := s.store.Stats(c.Request.Context()); err == nil {
		for status, count := range recordStats {
			response.Records[string(status)] = count
		}
	}

	c.JSON(http.StatusOK, response)
}
