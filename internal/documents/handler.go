package documents

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estate-desk/society-portal/society-portal-backend/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth, requireOwner gin.HandlerFunc) {
	docs := rg.Group("/documents", requireAuth)
	{
		docs.POST("/upload", requireOwner, h.Upload)
		docs.GET("", h.List)
		docs.GET("/:id", h.Download)
		docs.GET("/:id/metadata", h.GetMetadata)
		docs.GET("/:id/url", h.DownloadURL)
		docs.DELETE("/:id", requireOwner, h.Delete)
		docs.POST("/:id/versions", requireOwner, h.UploadVersion)
		docs.GET("/:id/versions", h.ListVersions)
		docs.GET("/:id/versions/:version", h.GetVersion)
	}
}

func accessFrom(c *gin.Context) AccessContext {
	return AccessContext{
		MemberID:  auth.MemberID(c),
		SocietyID: auth.SocietyID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func detectFileType(fileName string) FileType {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FileTypePDF
	case ".docx", ".doc":
		return FileTypeDOCX
	case ".xlsx", ".xls":
		return FileTypeXLSX
	case ".png", ".jpg", ".jpeg", ".gif":
		return FileTypeImage
	case ".zip":
		return FileTypeZIP
	}
	return FileTypePDF
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	projectID, err := uuid.Parse(c.PostForm("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	doc, err := h.service.UploadDocument(c.Request.Context(), UploadRequest{
		ProjectID:    projectID,
		Name:         file.Filename,
		Description:  c.PostForm("description"),
		DocumentType: DocumentType(c.PostForm("document_type")),
		FileType:     detectFileType(file.Filename),
		FileSize:     file.Size,
		FileContent:  f,
		UploadedBy:   auth.MemberID(c),
	}, accessFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	var projectID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		projectID = &id
	}

	var docType *DocumentType
	if raw := c.Query("document_type"); raw != "" {
		dt := DocumentType(raw)
		docType = &dt
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), projectID, docType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	reader, doc, err := h.service.DownloadDocument(c.Request.Context(), id, accessFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if doc.FileType == FileTypePDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	c.DataFromReader(http.StatusOK, doc.FileSize, contentType, reader, nil)
}

func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	url, err := h.service.DownloadURL(c.Request.Context(), id, accessFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) GetMetadata(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id, accessFrom(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UploadVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	version, err := h.service.UploadNewVersion(c.Request.Context(), id, VersionRequest{
		FileContent:   f,
		FileSize:      file.Size,
		ChangeSummary: c.PostForm("change_summary"),
		UploadedBy:    auth.MemberID(c),
	}, accessFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

func (h *Handler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	versions, err := h.service.ListVersions(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) GetVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	versionNum, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version number"})
		return
	}

	version, err := h.service.GetDocumentVersion(c.Request.Context(), id, versionNum)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if errors.Is(err, ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
