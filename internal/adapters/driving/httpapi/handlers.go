package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
	Filter string `json:"filter"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	K        int    `json:"k"`
	Filter   string `json:"filter"`
	Remember bool   `json:"remember"`
}

// MessageRequest is the body of POST /messages.
type MessageRequest struct {
	Content   string     `json:"content" binding:"required"`
	Sender    string     `json:"sender" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ragcore backend is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.ports.Retrieval.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "units": stats.Live})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	rc, err := s.ports.Retrieval.Query(c.Request.Context(), req.Query, domain.QueryOptions{K: req.K, Filter: req.Filter})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if rc.Sources == nil {
		rc.Sources = []domain.Source{}
	}
	c.JSON(http.StatusOK, rc)
}

func (s *Server) handleChat(c *gin.Context) {
	if s.ports.Chat == nil {
		abortNotConfigured(c, "chat")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	answer, err := s.ports.Chat.Ask(c.Request.Context(), req.Message, domain.AskOptions{
		Query:    domain.QueryOptions{K: req.K, Filter: req.Filter},
		Remember: req.Remember,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleListMessages(c *gin.Context) {
	if s.ports.Chat == nil {
		abortNotConfigured(c, "chat")
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	messages, err := s.ports.Chat.History(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) handleSaveMessage(c *gin.Context) {
	if s.ports.Chat == nil {
		abortNotConfigured(c, "chat")
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	msg := domain.Message{Content: req.Content, Sender: req.Sender}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	}
	saved, err := s.ports.Chat.SaveMessage(c.Request.Context(), msg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	if s.ports.Document == nil {
		c.JSON(http.StatusOK, []domain.Document{})
		return
	}

	docs, err := s.ports.Document.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) handleGetDocument(c *gin.Context) {
	if s.ports.Document == nil {
		abortNotConfigured(c, "document store")
		return
	}

	doc, err := s.ports.Document.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDocumentPages(c *gin.Context) {
	if s.ports.Document == nil {
		abortNotConfigured(c, "document store")
		return
	}

	pages, err := s.ports.Document.Pages(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	c.JSON(http.StatusOK, pages)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	var err error
	if s.ports.Document != nil {
		err = s.ports.Document.Delete(c.Request.Context(), c.Param("id"))
	} else {
		err = s.ports.Retrieval.DeleteDocument(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleUpload ingests a multipart "file" field.
func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: missing file field", domain.ErrInvalidInput))
		return
	}

	filename := filepath.Base(header.Filename)
	fileType := c.PostForm("file_type")
	if fileType == "" {
		fileType = filepath.Ext(filename)
	}
	if _, err := domain.ParseFileType(fileType); err != nil {
		abortWithError(c, err)
		return
	}

	dir, err := os.MkdirTemp("", "ragcore-upload-*")
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filename)
	if err := c.SaveUploadedFile(header, path); err != nil {
		abortWithError(c, err)
		return
	}

	res, err := s.ports.Retrieval.Ingest(c.Request.Context(), domain.IngestRequest{
		Path:       path,
		Filename:   filename,
		FileType:   fileType,
		DocumentID: c.PostForm("document_id"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.ports.Retrieval.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
