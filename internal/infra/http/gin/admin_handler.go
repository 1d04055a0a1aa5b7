package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"skoropad/internal/app/dto"

	adminsvc "skoropad/internal/app/services/admin"
	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

type AdminHTTP interface {
	ListUsers(c *gin.Context)
	SetBanned(c *gin.Context)
	SetRole(c *gin.Context)
	DeleteAdvertisement(c *gin.Context)
	SetAdvertisementVIP(c *gin.Context)
	RecentLog(c *gin.Context)
	Export(c *gin.Context)
}

type AdminHandler struct {
	Service *adminsvc.Service
	Hub     SessionDropper
	Logger  *slog.Logger
}

// SessionDropper tears down a user's live chat session, used when a ban must
// take effect immediately.
type SessionDropper interface {
	Drop(userID domainuser.ID)
}

type setBannedRequest struct {
	Banned bool `json:"banned"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type setVIPRequest struct {
	VIP bool `json:"vip"`
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	p, ok := requireModerator(c)
	if !ok {
		return
	}
	users, total, err := h.Service.ListUsers(c.Request.Context(), p.User, domainuser.ListParams{
		Query:  c.Query("query"),
		Limit:  parsePositiveInt(c.Query("limit"), 50),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	})
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdminUserList(users, total))
}

func (h AdminHandler) SetBanned(c *gin.Context) {
	p, ok := requireModerator(c)
	if !ok {
		return
	}
	var req setBannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	targetID := domainuser.ID(c.Param("id"))
	target, err := h.Service.SetBanned(c.Request.Context(), p.User, targetID, req.Banned)
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	if req.Banned && h.Hub != nil {
		h.Hub.Drop(targetID)
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(target))
}

func (h AdminHandler) SetRole(c *gin.Context) {
	p, ok := requireRole(c, domainuser.RoleAdmin)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	target, err := h.Service.SetRole(c.Request.Context(), p.User, domainuser.ID(c.Param("id")), domainuser.Role(req.Role))
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(target))
}

func (h AdminHandler) DeleteAdvertisement(c *gin.Context) {
	p, ok := requireModerator(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteAdvertisement(c.Request.Context(), p.User, domainads.ID(c.Param("id"))); err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) SetAdvertisementVIP(c *gin.Context) {
	p, ok := requireModerator(c)
	if !ok {
		return
	}
	var req setVIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ad, err := h.Service.SetAdvertisementVIP(c.Request.Context(), p.User, domainads.ID(c.Param("id")), req.VIP)
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdvertisementCard(ad))
}

func (h AdminHandler) RecentLog(c *gin.Context) {
	p, ok := requireRole(c, domainuser.RoleAdmin)
	if !ok {
		return
	}
	entries, err := h.Service.RecentLog(c.Request.Context(), p.User, parsePositiveInt(c.Query("limit"), 100))
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.MapModerationLog(entries)})
}

// Export streams the full data dump as an attachment.
func (h AdminHandler) Export(c *gin.Context) {
	p, ok := requireRole(c, domainuser.RoleAdmin)
	if !ok {
		return
	}
	export, err := h.Service.ExportData(c.Request.Context(), p.User)
	if err != nil {
		h.respondAdminError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="skoropad-export.json"`)
	c.JSON(http.StatusOK, export)
}

func (h AdminHandler) respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, adminsvc.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, adminsvc.ErrSelfTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot target yourself"})
	case errors.Is(err, domainuser.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domainads.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "advertisement not found"})
	default:
		if h.Logger != nil {
			h.Logger.Error("admin operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ AdminHTTP = (*AdminHandler)(nil)
