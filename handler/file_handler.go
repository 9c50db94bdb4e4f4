package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/service"
	"github.com/tieubaoca/studytool-be/types"
	"github.com/tieubaoca/studytool-be/utils"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type FileHandler struct {
	fileService    service.FileService
	maxUploadBytes int64
	log            *logger.Logger
}

func NewFileHandler(fileService service.FileService, maxUploadBytes int64, log *logger.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With("handler", "FileHandler"),
	}
}

func (h *FileHandler) HandleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadBytes)})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "a file is required in the 'file' form field"})
		return
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadBytes)})
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid file"})
		return
	}
	defer src.Close()

	stored, err := h.fileService.Store(c.Request.Context(), header.Filename, src)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.UploadResponse{
		ID:               stored.ID,
		Filename:         stored.StoredFilename,
		OriginalFilename: stored.OriginalFilename,
		Size:             stored.FileSize,
		UploadTime:       stored.UploadTime,
	})
}

func (h *FileHandler) HandleList(c *gin.Context) {
	files, err := h.fileService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.FileListResponse{Files: files})
}

// HandleDownload returns the original bytes of a stored file.
func (h *FileHandler) HandleDownload(c *gin.Context) {
	data, file, err := h.fileService.Fetch(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": file.OriginalFilename})
	if disposition != "" {
		c.Header("Content-Disposition", disposition)
	}
	c.Data(http.StatusOK, contentTypeFor(file.StoredFilename), data)
}

// HandleText returns the extracted plain text of a stored file.
func (h *FileHandler) HandleText(c *gin.Context) {
	text, err := h.fileService.ExtractText(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *FileHandler) HandleDelete(c *gin.Context) {
	if err := h.fileService.Delete(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "File deleted successfully"})
}

func contentTypeFor(storageName string) string {
	switch utils.Extension(storageName) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
