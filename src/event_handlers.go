package main

import (
	"log"
	"net/http"

	"fest/src/db"
	"fest/src/middlewares"
	"fest/src/models"
	"fest/src/types"

	"github.com/gin-gonic/gin"
)

// publicEventRoutes serves the catalog without authentication. Draft events
// stay invisible here.
func publicEventRoutes(router *gin.Engine) {
	public := router.Group(apiPrefix)
	public.
		GET("/events", func(ctx *gin.Context) {
			conn := db.GetDb()
			var events []models.Event
			if err := conn.
				Where("status <> ?", types.EVENT_DRAFT).
				Order("start_date").
				Find(&events).Error; err != nil {
				log.Printf("Error listing events: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			conn := db.GetDb()
			var event models.Event
			if err := conn.
				Preload("MerchandiseVariants").
				Where("id = ? AND status <> ?", params.ID, types.EVENT_DRAFT).
				First(&event).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
				return
			}
			if err := getEngine().IncrementPageViews(ctx, event.ID); err != nil {
				log.Printf("Error counting page view for event %d: %s\n", event.ID, err.Error())
			} else {
				event.Analytics.PageViews++
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
}

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			event, err := getEngine().CreateEvent(ctx, organizer.ID, &body)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"message": "Event created", "data": event})
		}).
		PUT("/events/:id/publish", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			event, err := getEngine().PublishEvent(ctx, params.ID, organizer.ID)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Event published", "data": event})
		}).
		PUT("/events/:id/status", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateEventStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			event, err := getEngine().UpdateEventStatus(ctx, params.ID, organizer.ID, body.Status)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Event status updated", "data": event})
		}).
		PUT("/events/:id/form", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				FormSchema types.JSONBArray `json:"form_schema" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			event, err := getEngine().UpdateFormSchema(ctx, params.ID, organizer.ID, body.FormSchema)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Form updated", "data": event})
		}).
		GET("/events/organizer/mine", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var events []models.Event
			if err := conn.
				Where(&models.Event{OrganizerID: organizer.ID}).
				Order("created_at desc").
				Find(&events).Error; err != nil {
				log.Printf("Error listing organizer events: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		DELETE("/events/:id", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			if err := getEngine().DeleteEventCascade(ctx, params.ID, organizer.ID); err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
		}).
		GET("/events/:id/analytics", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var event models.Event
			if err := conn.First(&event, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
				return
			}
			if event.OrganizerID != organizer.ID {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "This event is not yours"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event.Analytics})
		}).
		GET("/events/:id/analytics/history", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var event models.Event
			if err := conn.First(&event, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
				return
			}
			if event.OrganizerID != organizer.ID {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "This event is not yours"})
				return
			}
			var history []models.EventAnalyticsHistory
			if err := conn.
				Where("event_id = ?", event.ID).
				Order("date").
				Find(&history).Error; err != nil {
				log.Printf("Error loading analytics history: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": history})
		})
	return g
}
