package main

import (
	"errors"
	"log"
	"net/http"

	"fest/src/db"
	"fest/src/engine"
	"fest/src/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var eng *engine.Engine

func getEngine() *engine.Engine {
	if eng == nil {
		eng = engine.NewDefault(db.GetDb())
	}
	return eng
}

// abortWithEngineError translates an operation failure into the JSON error
// envelope. Unclassified errors log their detail and surface a generic 500.
func abortWithEngineError(ctx *gin.Context, err error) {
	status := engine.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("unhandled operation error: %s\n", err.Error())
	}
	ctx.JSON(status, gin.H{"error": engine.MessageOf(err)})
}

// currentParticipant resolves the authenticated user's participant profile.
func currentParticipant(ctx *gin.Context) (*models.Participant, bool) {
	userId := ctx.GetUint("id")
	conn := db.GetDb()
	var participant models.Participant
	if err := conn.Where(&models.Participant{UserID: userId}).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "No participant profile for this account"})
		} else {
			log.Printf("Error loading participant profile: %s\n", err.Error())
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		}
		return nil, false
	}
	return &participant, true
}

// currentOrganizer resolves the authenticated user's organizer profile.
func currentOrganizer(ctx *gin.Context) (*models.Organizer, bool) {
	userId := ctx.GetUint("id")
	conn := db.GetDb()
	var organizer models.Organizer
	if err := conn.Where(&models.Organizer{UserID: userId}).First(&organizer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "No organizer profile for this account"})
		} else {
			log.Printf("Error loading organizer profile: %s\n", err.Error())
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		}
		return nil, false
	}
	return &organizer, true
}
