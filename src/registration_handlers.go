package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"fest/src/db"
	"fest/src/lib"
	awslib "fest/src/lib/aws"
	"fest/src/middlewares"
	"fest/src/models"
	"fest/src/types"

	"github.com/gin-gonic/gin"
)

func registrationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/registrations/event/:id", middlewares.RequireRole(types.ROLE_PARTICIPANT), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.RegisterForEventRequestBody
			if ctx.Request.ContentLength > 0 {
				if err := ctx.ShouldBindJSON(&body); err != nil {
					log.Printf("Error validating request: %s\n", err.Error())
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}
			participant, ok := currentParticipant(ctx)
			if !ok {
				return
			}
			registration, err := getEngine().RegisterForEvent(ctx, params.ID, participant.ID, body.FormResponses)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"message": "Registered successfully", "data": registration})
		}).
		GET("/registrations/my", middlewares.RequireRole(types.ROLE_PARTICIPANT), func(ctx *gin.Context) {
			participant, ok := currentParticipant(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var registrations []models.Registration
			if err := conn.
				Preload("Event").
				Where("participant_id = ?", participant.ID).
				Order("created_at desc").
				Find(&registrations).Error; err != nil {
				log.Printf("Error listing registrations: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			// Merchandise orders ride along so participants can follow
			// pending/approved status from the same screen.
			var orders []models.MerchandiseOrder
			if err := conn.
				Preload("Event").
				Where("participant_id = ?", participant.ID).
				Order("created_at desc").
				Find(&orders).Error; err != nil {
				log.Printf("Error listing orders: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"registrations": registrations,
				"orders":        orders,
			}})
		}).
		GET("/registrations/event/:id", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
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
			query := conn.
				Preload("Participant").
				Preload("Participant.User").
				Where("event_id = ?", event.ID)
			if ptype := ctx.Query("participantType"); ptype != "" {
				query = query.Where("participant_type = ?", ptype)
			}
			var registrations []models.Registration
			if err := query.Order("created_at").Find(&registrations).Error; err != nil {
				log.Printf("Error listing event registrations: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": registrations})
		}).
		GET("/registrations/:id/ticket", middlewares.RequireRole(types.ROLE_PARTICIPANT), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			participant, ok := currentParticipant(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var registration models.Registration
			if err := conn.First(&registration, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
				return
			}
			if registration.ParticipantID != participant.ID {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "This ticket is not yours"})
				return
			}
			if os.Getenv("API_ENV") == "local" {
				ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"ticketId": registration.TicketID, "url": registration.QRCodeURL}})
				return
			}
			// Presigned URLs expire; cache the fresh one just short of its
			// lifetime.
			cacheKey := fmt.Sprintf("ticket:%s:url", registration.TicketID)
			rd := lib.GetRedisClient()
			if rd != nil {
				if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil && cached != "" {
					ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"ticketId": registration.TicketID, "url": cached}})
					return
				}
			}
			url, err := awslib.S3PresignAsset(fmt.Sprintf("ticket_%s", registration.TicketID))
			if err != nil {
				log.Printf("Error presigning ticket asset: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch ticket"})
				return
			}
			if rd != nil {
				rd.Set(context.Background(), cacheKey, *url, 55*time.Minute)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"ticketId": registration.TicketID, "url": *url}})
		})
	return g
}
