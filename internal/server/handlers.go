package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fbz-tec/storexport/core/export"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/gin-gonic/gin"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   export.ErrorKind `json:"error"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

func statusOf(kind export.ErrorKind) int {
	switch kind {
	case export.KindValidation:
		return http.StatusBadRequest
	case export.KindEmptyResult:
		return http.StatusUnprocessableEntity
	case export.KindJobNotFound:
		return http.StatusNotFound
	case export.KindSecurity:
		return http.StatusForbidden
	case export.KindConflict, export.KindJobFailed:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	kind := export.KindOf(err)
	status := statusOf(kind)
	body := errorBody{Error: kind, Message: err.Error()}

	var e *export.Error
	if errors.As(err, &e) {
		body.Message = e.Message
		body.Hint = e.Hint
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		body.Message = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: export.KindValidation, Message: err.Error()})
}

func (s *Server) createExport(c *gin.Context) {
	var req export.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.engine.CreateExport(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) processBatch(c *gin.Context) {
	res, err := s.engine.ProcessBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) status(c *gin.Context) {
	st, err := s.engine.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) downloads(c *gin.Context) {
	dls, err := s.engine.Downloads(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloads": dls})
}

func (s *Server) download(c *gin.Context) {
	var req export.DownloadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, &export.Error{Kind: export.KindSecurity, Message: "access denied"})
		return
	}
	f, err := s.engine.GetDownload(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	c.Header("Content-Length", strconv.FormatInt(f.Size, 10))
	c.Header("Content-Type", f.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, f); err != nil {
		logger.Warn("Download of %s interrupted: %v", f.Filename, err)
	}
}

func (s *Server) preview(c *gin.Context) {
	var req export.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.engine.PreviewSample(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) describe(c *gin.Context) {
	cat, err := s.engine.Describe(c.Request.Context(), c.Param("kind"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) options(c *gin.Context) {
	opts, err := s.engine.Options(c.Request.Context(), c.Param("kind"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}
