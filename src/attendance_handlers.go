package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"time"

	"fest/src/db"
	"fest/src/middlewares"
	"fest/src/models"
	"fest/src/types"

	"github.com/gin-gonic/gin"
)

func attendanceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/attendance/scan", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var body types.ScanTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			result, err := getEngine().ScanTicket(ctx, body.TicketData, organizer.ID)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Attendance marked", "data": result})
		}).
		POST("/attendance/manual", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var body types.ManualOverrideRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			result, err := getEngine().ManualOverride(ctx, body.TicketID, body.OverrideReason, organizer.ID)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			message := "Attendance marked manually"
			if result.AlreadyMarked {
				message = "Attendance was already marked; override logged"
			}
			ctx.JSON(http.StatusOK, gin.H{"message": message, "data": result})
		}).
		GET("/attendance/event/:id", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			event, ok := ownedEventFromParams(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var logs []models.AttendanceLog
			if err := conn.
				Preload("Participant").
				Where("event_id = ?", event.ID).
				Order("scanned_at").
				Find(&logs).Error; err != nil {
				log.Printf("Error listing attendance logs: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": logs})
		}).
		GET("/attendance/event/:id/all", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			event, ok := ownedEventFromParams(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var registrations []models.Registration
			if err := conn.
				Preload("Participant").
				Where("event_id = ?", event.ID).
				Find(&registrations).Error; err != nil {
				log.Printf("Error listing registrations: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			var orders []models.MerchandiseOrder
			if err := conn.
				Preload("Participant").
				Where("event_id = ? AND approval_status = ?", event.ID, types.APPROVAL_APPROVED).
				Find(&orders).Error; err != nil {
				log.Printf("Error listing orders: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"registrations": registrations,
				"orders":        orders,
				"attendance":    event.Analytics.AttendanceCount,
				"expected":      len(registrations) + len(orders),
			}})
		}).
		GET("/attendance/event/:id/export-csv", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			event, ok := ownedEventFromParams(ctx)
			if !ok {
				return
			}
			conn := db.GetDb()
			var logs []models.AttendanceLog
			if err := conn.
				Preload("Participant").
				Where("event_id = ?", event.ID).
				Order("scanned_at").
				Find(&logs).Error; err != nil {
				log.Printf("Error exporting attendance logs: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}

			filename := fmt.Sprintf("attendance_%s_%d.csv", event.Slug, time.Now().UnixMilli())
			ctx.Header("Content-Type", "text/csv")
			ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
			w := csv.NewWriter(ctx.Writer)
			w.Write([]string{"ticket_id", "participant", "scanned_at", "scanned_by", "manual_override", "override_reason"})
			for _, entry := range logs {
				reason := ""
				if entry.OverrideReason != nil {
					reason = *entry.OverrideReason
				}
				w.Write([]string{
					entry.TicketID,
					fmt.Sprintf("%s %s", entry.Participant.FirstName, entry.Participant.LastName),
					entry.ScannedAt.Format(time.RFC3339),
					fmt.Sprint(entry.ScannedBy),
					fmt.Sprint(entry.ManualOverride),
					reason,
				})
			}
			w.Flush()
		})
	return g
}

// ownedEventFromParams binds :id and enforces the organizer owns that event.
func ownedEventFromParams(ctx *gin.Context) (*models.Event, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	organizer, ok := currentOrganizer(ctx)
	if !ok {
		return nil, false
	}
	conn := db.GetDb()
	var event models.Event
	if err := conn.First(&event, params.ID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil, false
	}
	if event.OrganizerID != organizer.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "This event is not yours"})
		return nil, false
	}
	return &event, true
}
