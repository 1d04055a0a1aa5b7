package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"skoropad/internal/app/dto"

	adssvc "skoropad/internal/app/services/ads"
	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

type AdsHTTP interface {
	Catalog(c *gin.Context)
	Categories(c *gin.Context)
	Stats(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Mine(c *gin.Context)
	Showcase(c *gin.Context)
	Delete(c *gin.Context)
}

type AdsHandler struct {
	Service *adssvc.Service
	Logger  *slog.Logger
}

type createAdRequest struct {
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	DiscordContact  string   `json:"discord_contact"`
	TelegramContact string   `json:"telegram_contact"`
	PriceCents      *int64   `json:"price_cents"`
}

// Catalog lists advertisements, VIP placements first within the requested
// slice of the taxonomy.
func (h AdsHandler) Catalog(c *gin.Context) {
	params := domainads.SearchParams{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Query:       c.Query("q"),
		Limit:       parsePositiveInt(c.Query("limit"), 20),
		Offset:      parsePositiveInt(c.Query("offset"), 0),
	}
	items, total, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdvertisementCatalog(items, total))
}

func (h AdsHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": dto.MapCategories(domainads.Categories)})
}

func (h AdsHandler) Stats(c *gin.Context) {
	stats, err := h.Service.SiteStats(c.Request.Context())
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SiteStats{
		TotalUsers: stats.TotalUsers,
		TotalAds:   stats.TotalAds,
		VIPAds:     stats.VIPAds,
		RecentAds:  stats.RecentAds,
	})
}

func (h AdsHandler) Get(c *gin.Context) {
	ad, err := h.Service.ByID(c.Request.Context(), domainads.ID(c.Param("id")))
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdvertisementCard(ad))
}

func (h AdsHandler) Create(c *gin.Context) {
	p, ok := requireSignIn(c)
	if !ok {
		return
	}
	var req createAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ad, err := h.Service.Create(c.Request.Context(), p.User, adssvc.CreateParams{
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Title:           req.Title,
		Description:     req.Description,
		Images:          req.Images,
		DiscordContact:  req.DiscordContact,
		TelegramContact: req.TelegramContact,
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapAdvertisementCard(ad))
}

func (h AdsHandler) Mine(c *gin.Context) {
	p, ok := requireSignIn(c)
	if !ok {
		return
	}
	items, err := h.Service.ByOwner(c.Request.Context(), p.ID())
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdvertisementCatalog(items, len(items)))
}

// Showcase is the public profile page of an arbitrary user: the account plus
// every advertisement they own. No sign-in required.
func (h AdsHandler) Showcase(c *gin.Context) {
	owner, items, err := h.Service.Showcase(c.Request.Context(), domainuser.ID(c.Param("id")))
	if err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserShowcase(owner, items))
}

func (h AdsHandler) Delete(c *gin.Context) {
	p, ok := requireSignIn(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), p.User, domainads.ID(c.Param("id"))); err != nil {
		h.respondAdsError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdsHandler) respondAdsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainads.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "advertisement not found"})
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, adssvc.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the advertisement owner"})
	case errors.Is(err, adssvc.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
	case errors.Is(err, domainads.ErrUnknownCategory),
		errors.Is(err, domainads.ErrUnknownSubcategory),
		errors.Is(err, domainads.ErrTitleRequired),
		errors.Is(err, domainads.ErrDescriptionRequired),
		errors.Is(err, domainads.ErrContactRequired),
		errors.Is(err, domainads.ErrTooManyImages),
		errors.Is(err, domainads.ErrNegativePrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("ads operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}

var _ AdsHTTP = (*AdsHandler)(nil)
