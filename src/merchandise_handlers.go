package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"

	"fest/src/db"
	awslib "fest/src/lib/aws"
	"fest/src/middlewares"
	"fest/src/models"
	"fest/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func merchandiseHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/registrations/merchandise/:id", middlewares.RequireRole(types.ROLE_PARTICIPANT), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.PlaceOrderRequestBody
			if err := ctx.ShouldBind(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var selections types.VariantSelections
			if body.VariantsSelected != "" {
				if err := json.Unmarshal([]byte(body.VariantsSelected), &selections); err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "variantsSelected must be a JSON array"})
					return
				}
			}
			participant, ok := currentParticipant(ctx)
			if !ok {
				return
			}

			var proofURL *string
			file, err := ctx.FormFile("paymentProof")
			if err == nil && file != nil {
				if file.Size > awslib.MaxProofSizeBytes {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "Payment proof exceeds the 5 MiB limit"})
					return
				}
				contentType := file.Header.Get("Content-Type")
				if !awslib.AllowedProofTypes[contentType] {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "Payment proof must be an image or a PDF"})
					return
				}
				name := awslib.ProofObjectName(uuid.New().String()[:8])
				if os.Getenv("API_ENV") == "local" {
					dst := path.Join(os.Getenv("TEMP_DIR"), name)
					if err := ctx.SaveUploadedFile(file, dst); err != nil {
						log.Printf("Error saving payment proof: %s\n", err.Error())
						ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store payment proof"})
						return
					}
					local := fmt.Sprintf("%s/share/%s", apiPrefix, name)
					proofURL = &local
				} else {
					src, err := file.Open()
					if err != nil {
						log.Printf("Error reading payment proof: %s\n", err.Error())
						ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store payment proof"})
						return
					}
					defer src.Close()
					proofURL, err = awslib.S3UploadProof(name, src, contentType)
					if err != nil {
						ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store payment proof"})
						return
					}
				}
			}

			order, err := getEngine().PlaceMerchandiseOrder(ctx, params.ID, participant.ID, selections, body.Quantity, proofURL)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"message": "Order placed", "data": order})
		}).
		PUT("/registrations/merchandise/:id/approve", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			order, err := getEngine().ApproveOrder(ctx, params.ID, organizer.ID)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Order approved", "data": order})
		}).
		PUT("/registrations/merchandise/:id/reject", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizer, ok := currentOrganizer(ctx)
			if !ok {
				return
			}
			order, err := getEngine().RejectOrder(ctx, params.ID, organizer.ID)
			if err != nil {
				abortWithEngineError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Order rejected", "data": order})
		}).
		GET("/registrations/merchandise/event/:id", middlewares.RequireRole(types.ROLE_ORGANIZER), func(ctx *gin.Context) {
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
			if status := ctx.Query("status"); status != "" {
				query = query.Where("approval_status = ?", status)
			}
			var orders []models.MerchandiseOrder
			if err := query.Order("created_at").Find(&orders).Error; err != nil {
				log.Printf("Error listing merchandise orders: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders})
		})
	return g
}
