package promo

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/respond"
)

const (
	qrFileName    = "sofia-recrutement-qrcode.png"
	flyerFileName = "affiche-recrutement.png"
)

// Handler exposes QR and flyer generation to admins.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches promo routes. rg must be behind AdminAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/qr", h.qrLink)
	rg.GET("/qr.png", h.qrPanel)
	rg.GET("/flyer/defaults", h.flyerDefaults)
	rg.POST("/flyer", h.flyer)
	rg.POST("/flyer/background", h.background)
}

func (h *Handler) qrLink(c *gin.Context) {
	target, imageURL, err := h.Svc.QRImageURL(c.Query("target"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"target": target, "imageUrl": imageURL})
}

func (h *Handler) qrPanel(c *gin.Context) {
	data, err := h.Svc.QRPanelPNG(c.Request.Context(), c.Query("target"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Attachment(c, "image/png", qrFileName, data)
}

func (h *Handler) flyerDefaults(c *gin.Context) {
	respond.OK(c, FlyerConfig{}.WithDefaults(h.Svc.Catalog.Flyer))
}

func (h *Handler) flyer(c *gin.Context) {
	var cfg FlyerConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	data, err := h.Svc.FlyerPNG(c.Request.Context(), cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Attachment(c, "image/png", flyerFileName, data)
}

type backgroundRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (h *Handler) background(c *gin.Context) {
	var req backgroundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "prompt is required", nil)
		return
	}
	uri, err := h.Svc.GenerateBackground(c.Request.Context(), req.Prompt)
	if err != nil {
		h.fail(c, err)
		return
	}
	if uri == "" {
		respond.OK(c, gin.H{"backgroundImage": nil})
		return
	}
	respond.OK(c, gin.H{"backgroundImage": uri})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusBadGateway, "render_failed", "unable to generate image", nil)
	}
}
