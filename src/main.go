package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"time"

	"fest/src/config"
	"fest/src/db"
	"fest/src/lib"
	"fest/src/middlewares"
	"fest/src/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	apiPrefix string = "/api/v1"
)

var eventDateTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return time.Now().Before(datetime)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET(apiPrefix+"/share/:filename", func(ctx *gin.Context) {
		filename := ctx.Param("filename")
		ctx.File(path.Join(os.Getenv("TEMP_DIR"), filename))
	})
	return router
}

func registerRoutes(router *gin.Engine) {
	publicEventRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized = eventHandlers(authorized)
		authorized = registrationHandlers(authorized)
		authorized = merchandiseHandlers(authorized)
		authorized = attendanceHandlers(authorized)
	}
}

func migrateDb() {
	conn := db.GetDb()
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Organizer{},
		&models.Participant{},
		&models.Event{},
		&models.MerchandiseVariant{},
		&models.Registration{},
		&models.MerchandiseOrder{},
		&models.AttendanceLog{},
		&models.EventAnalyticsHistory{},
	); err != nil {
		log.Fatalf("Error running migrations: %s\n", err.Error())
	}
}

func startAnalyticsSnapshots() {
	snapshot := func() {
		if err := getEngine().SnapshotAnalytics(context.Background()); err != nil {
			log.Printf("Error capturing analytics snapshot: %s\n", err.Error())
		}
	}
	snapshot()
	if _, err := lib.CreateCronJob(snapshot, 24*time.Hour); err != nil {
		log.Printf("Error scheduling analytics snapshot job: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		return
	}
	sched.Start()
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}

	migrateDb()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", eventDateTimeValidatorFunc)
	}

	registerRoutes(router)

	startAnalyticsSnapshots()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("%s API listening on :%s\n", config.AppName(), port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
