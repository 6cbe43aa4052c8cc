package applicants

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/storage/object"
)

// Form overhead allowed on top of the resume itself.
const maxFormOverhead = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the applicant service and admin board.
type Handler struct {
	Svc      *Service
	Board    *Board
	Uploader *resumes.Uploader
	Catalog  config.Catalog
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, board *Board, uploader *resumes.Uploader, cat config.Catalog) *Handler {
	return &Handler{Svc: svc, Board: board, Uploader: uploader, Catalog: cat}
}

// RegisterPublicRoutes attaches the application form routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.catalog)
	rg.POST("/applications", h.submit)
}

// RegisterAdminRoutes attaches the triage routes. rg must be behind AdminAuth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/applicants", h.list)
	rg.GET("/applicants/stats", h.stats)
	rg.GET("/applicants/export.xlsx", h.export)
	rg.GET("/applicants/:id", h.get)
	rg.PATCH("/applicants/:id", h.update)
	rg.DELETE("/applicants/:id", h.delete)
	rg.GET("/applicants/:id/resume", h.resume)
	rg.GET("/applicants/:id/resume/text", h.resumeText)
	rg.GET("/sync", h.pending)
	rg.POST("/sync", h.resync)
}

func (h *Handler) catalog(c *gin.Context) {
	respond.OK(c, gin.H{
		"positions":    h.Catalog.Positions,
		"statuses":     Statuses,
		"statusLabels": h.Catalog.StatusLabels,
		"flyer":        h.Catalog.Flyer,
		"resume": gin.H{
			"acceptedExtensions": resumes.AcceptedExtensions(),
			"maxBytes":           resumes.MaxFileBytes,
		},
	})
}

type applicationForm struct {
	FirstName string `form:"firstName" binding:"required"`
	LastName  string `form:"lastName" binding:"required"`
	Email     string `form:"email" binding:"required,email"`
	Phone     string `form:"phone" binding:"required"`
	Position  string `form:"position" binding:"required"`
	StartDate string `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" binding:"required,datetime=2006-01-02"`
	Notes     string `form:"notes"`
}

func (h *Handler) submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, resumes.MaxFileBytes+maxFormOverhead)

	var form applicationForm
	if err := c.ShouldBind(&form); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid application form", err.Error())
		return
	}

	sub := Submission{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Position:  form.Position,
		StartDate: form.StartDate,
		EndDate:   form.EndDate,
		Notes:     form.Notes,
		RequestID: middleware.RequestIDFromContext(c),
	}

	fh, err := c.FormFile("cv")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read cv file", nil)
		return
	default:
		if fh.Size > resumes.MaxFileBytes {
			respond.Error(c, http.StatusBadRequest, "validation_error", "cv exceeds 10MB", gin.H{"maxBytes": resumes.MaxFileBytes})
			return
		}
		if !resumes.Accepted(fh.Filename) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported cv format", gin.H{"accepted": resumes.AcceptedExtensions()})
			return
		}
		file := resumes.FromMultipart(fh)
		sub.Resume = &file
	}

	a, err := h.Svc.Submit(c.Request.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, resumes.ErrUploadFailed):
			respond.Error(c, http.StatusInternalServerError, "upload_failed", "unable to store cv, please retry", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "submission_failed", "unable to save application, please retry", nil)
		}
		return
	}

	c.Set(middleware.ApplicantIDKey, a.ID)
	respond.Created(c, toResponse(a, h.Catalog.Label))
}

// listQuery parses the status and search filters. ok is false after a 400.
func (h *Handler) listQuery(c *gin.Context) (status, term string, ok bool) {
	status = strings.ToUpper(strings.TrimSpace(c.DefaultQuery("status", StatusAll)))
	if status == "" {
		status = StatusAll
	}
	if status != StatusAll && !Status(status).Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", gin.H{"status": c.Query("status")})
		return "", "", false
	}
	return status, c.Query("q"), true
}

func (h *Handler) filtered(c *gin.Context) ([]View, bool) {
	status, term, ok := h.listQuery(c)
	if !ok {
		return nil, false
	}
	views := h.Board.List(c.Request.Context())
	out := make([]View, 0, len(views))
	for _, v := range views {
		if Matches(v.Applicant, status, term) {
			out = append(out, v)
		}
	}
	return out, true
}

func (h *Handler) list(c *gin.Context) {
	views, ok := h.filtered(c)
	if !ok {
		return
	}
	resp := make([]ApplicantResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toViewResponse(v, h.Catalog.Label))
	}
	respond.OK(c, resp)
}

func (h *Handler) stats(c *gin.Context) {
	views := h.Board.List(c.Request.Context())
	list := make([]Applicant, 0, len(views))
	for _, v := range views {
		list = append(list, v.Applicant)
	}
	respond.OK(c, toStatsResponse(ComputeStats(list, h.Catalog.Label)))
}

func (h *Handler) export(c *gin.Context) {
	views, ok := h.filtered(c)
	if !ok {
		return
	}
	list := make([]Applicant, 0, len(views))
	for _, v := range views {
		list = append(list, v.Applicant)
	}

	data, err := ExportXLSX(list, h.Catalog.Label)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to build spreadsheet", nil)
		return
	}
	name := "candidatures-" + time.Now().UTC().Format("20060102") + ".xlsx"
	respond.Attachment(c, xlsxContentType, name, data)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ApplicantIDKey, id)

	v, err := h.Board.Get(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	respond.OK(c, toViewResponse(v, h.Catalog.Label))
}

type updateRequest struct {
	Status   *string `json:"status"`
	Position *string `json:"position"`
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ApplicantIDKey, id)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var t Triage
	if req.Status != nil {
		s, err := ParseStatus(*req.Status)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		t.Status = &s
	}
	if req.Position != nil {
		p := strings.TrimSpace(*req.Position)
		if p == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "position must not be empty", nil)
			return
		}
		t.Position = &p
	}
	if t.Empty() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status or position is required", nil)
		return
	}

	v, prev, err := h.Board.Update(c.Request.Context(), id, t)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	if t.Status != nil && prev != *t.Status {
		c.Set(middleware.StatusTransitionKey, string(prev)+"->"+string(*t.Status))
	}
	respond.OK(c, toViewResponse(v, h.Catalog.Label))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ApplicantIDKey, id)

	if err := h.Board.Delete(c.Request.Context(), id); err != nil {
		h.lookupError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadResume(c *gin.Context) (View, resumes.Content, bool) {
	id := c.Param("id")
	c.Set(middleware.ApplicantIDKey, id)

	v, err := h.Board.Get(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, err)
		return View{}, resumes.Content{}, false
	}
	if !v.HasResume() {
		respond.Error(c, http.StatusNotFound, "not_found", "applicant has no cv", nil)
		return View{}, resumes.Content{}, false
	}
	if h.Uploader == nil {
		c.Redirect(http.StatusFound, v.CVURL)
		return View{}, resumes.Content{}, false
	}

	content, err := h.Uploader.Load(c.Request.Context(), v.CVURL, v.CVFileName)
	if err != nil {
		switch {
		case errors.Is(err, resumes.ErrExternal):
			c.Redirect(http.StatusFound, v.CVURL)
		case errors.Is(err, object.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "cv file not found", nil)
		case errors.Is(err, resumes.ErrInvalidDataURI):
			respond.Error(c, http.StatusUnprocessableEntity, "invalid_cv", "stored cv is corrupt", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read cv", nil)
		}
		return View{}, resumes.Content{}, false
	}
	return v, content, true
}

func (h *Handler) resume(c *gin.Context) {
	v, content, ok := h.loadResume(c)
	if !ok {
		return
	}
	name := v.CVFileName
	if name == "" {
		name = "cv"
	}
	respond.Attachment(c, content.ContentType, name, content.Data)
}

func (h *Handler) resumeText(c *gin.Context) {
	v, content, ok := h.loadResume(c)
	if !ok {
		return
	}
	text, err := resumes.ExtractText(c.Request.Context(), content)
	if err != nil {
		if errors.Is(err, resumes.ErrUnsupported) {
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_format", "text extraction supports pdf and docx only", nil)
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "unable to read cv text", nil)
		return
	}
	respond.OK(c, gin.H{"fileName": v.CVFileName, "text": text})
}

func (h *Handler) pending(c *gin.Context) {
	respond.OK(c, toSyncResponse(h.Board.Pending(), h.Catalog.Label))
}

func (h *Handler) resync(c *gin.Context) {
	respond.OK(c, toSyncResponse(h.Board.Resync(c.Request.Context()), h.Catalog.Label))
}

func (h *Handler) lookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "applicant not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load applicant", nil)
	}
}
