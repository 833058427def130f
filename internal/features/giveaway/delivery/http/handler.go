package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"activity-giveaway-bot/internal/common/errors"
	activitymodels "activity-giveaway-bot/internal/features/activity/models"
	activityservice "activity-giveaway-bot/internal/features/activity/service"
	"activity-giveaway-bot/internal/features/giveaway/models"
	giveawayservice "activity-giveaway-bot/internal/features/giveaway/service"
)

// GiveawayHandler exposes the operational command surface over HTTP. The
// primary command surface is the Discord gateway; this API mirrors it for
// dashboards and operational tooling.
type GiveawayHandler struct {
	giveaways *giveawayservice.GiveawayService
	activity  *activityservice.Service
}

func NewGiveawayHandler(giveaways *giveawayservice.GiveawayService, activity *activityservice.Service) *GiveawayHandler {
	return &GiveawayHandler{
		giveaways: giveaways,
		activity:  activity,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.create)
		giveaways.GET("", h.listActive)
		giveaways.GET("/:id", h.getByID)
		giveaways.POST("/:id/end", h.end)
		giveaways.POST("/:id/reroll", h.reroll)
		giveaways.POST("/:id/entries", h.addEntry)
		giveaways.DELETE("/:id/entries/:userID", h.removeEntry)
	}

	activity := router.Group("/activity")
	{
		activity.GET("/:guildID/:userID", h.getActivityStats)
	}

	config := router.Group("/config")
	{
		config.GET("", h.getActivityConfig)
		config.PATCH("", h.updateActivityConfig)
	}
}

func (h *GiveawayHandler) create(c *gin.Context) {
	var req models.GiveawayCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.giveaways.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, giveaway)
}

func (h *GiveawayHandler) listActive(c *gin.Context) {
	guildID := c.Query("guild_id")
	if guildID == "" {
		c.Error(errors.NewValidationError("guild_id", "query parameter is required"))
		return
	}

	giveaways, err := h.giveaways.ListActive(c.Request.Context(), guildID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, giveaways)
}

func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.giveaways.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

func (h *GiveawayHandler) end(c *gin.Context) {
	giveaway, winners, err := h.giveaways.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"giveaway": giveaway, "winners": winners})
}

type rerollRequest struct {
	Winners int `json:"winners"`
}

func (h *GiveawayHandler) reroll(c *gin.Context) {
	var req rerollRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.Error(errors.NewValidationError("body", err.Error()))
		return
	}

	winners, err := h.giveaways.Reroll(c.Request.Context(), c.Param("id"), req.Winners)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

type entryRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *GiveawayHandler) addEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("user_id", err.Error()))
		return
	}

	if err := h.giveaways.Enter(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GiveawayHandler) removeEntry(c *gin.Context) {
	if err := h.giveaways.Leave(c.Request.Context(), c.Param("id"), c.Param("userID")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GiveawayHandler) getActivityStats(c *gin.Context) {
	stats := h.activity.Stats(c.Request.Context(), c.Param("guildID"), c.Param("userID"))
	c.JSON(http.StatusOK, stats)
}

func (h *GiveawayHandler) getActivityConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.activity.Config())
}

func (h *GiveawayHandler) updateActivityConfig(c *gin.Context) {
	var patch activitymodels.ActivityConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(errors.NewValidationError("body", err.Error()))
		return
	}

	cfg, err := h.activity.UpdateConfig(c.Request.Context(), &patch)
	if err != nil {
		c.Error(errors.NewStorageError("update activity config", err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}
