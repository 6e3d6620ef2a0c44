package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"shapefile-service/internal/config"
	"shapefile-service/internal/handlers"
	"shapefile-service/internal/imagery"
	"shapefile-service/internal/metrics"
	"shapefile-service/internal/models"
	"shapefile-service/internal/processing"
	"shapefile-service/internal/repository"
	"shapefile-service/internal/services"
	"shapefile-service/internal/storage"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := InitConfig()
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)
	minioClient := InitMinIOClient(cfg)

	shapefileRepo := repository.NewShapefileRepository(db)
	shapefileService := services.NewShapefileService(shapefileRepo)

	imageryClient := imagery.NewClient(cfg.ImageryBaseURL, cfg.ImageryAPIKey)
	runner := processing.NewScriptRunner(cfg.PythonBin, cfg.ScriptPath, cfg.ScriptTimeout)
	archive := storage.NewRasterArchive(minioClient, cfg.MinioBucket)
	satelliteService := services.NewSatelliteService(
		shapefileRepo, imageryClient, runner, archive, cfg.DataDir, cfg.MaxImageBytes)
	exportService := services.NewExportService(shapefileRepo)

	app := fiber.New(fiber.Config{
		BodyLimit: 48 << 20, // four 10MB parts plus form overhead
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(code).JSON(fiber.Map{
				"error": true, "message": "internal server error",
			})
		},
	})
	app.Use(requestid.New())
	app.Use(fiberrecover.New())

	// Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Generated preview images are served from the data directory
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Could not create data directory: %v", err)
	}
	app.Static("/data", cfg.DataDir)

	sh := handlers.NewShapefileHandler(shapefileService, shapefileRepo)
	sat := handlers.NewSatelliteHandler(satelliteService)
	exp := handlers.NewExportHandler(exportService)
	registerRoutes(app, sh, sat, exp)

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	// Drain connections and close the pool on termination
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	port := cfg.AppPort
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("Server listening on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func registerRoutes(app *fiber.App, sh *handlers.ShapefileHandler, sat *handlers.SatelliteHandler, exp *handlers.ExportHandler) {
	api := app.Group("/api")
	api.Post("/shapefile/upload", sh.Upload)
	api.Get("/shapefile", sh.List)
	api.Get("/shapefile/:id", sh.Get)
	api.Get("/shapefile/:id/geometry", sh.GetGeometry)
	api.Get("/shapefile/:id/geojson", sh.GetGeoJSON)
	api.Put("/shapefile/:id", sh.Update)
	api.Delete("/shapefile/:id", sh.Delete)

	api.Post("/satellite/fetch-image", sat.FetchImage)
	api.Post("/satellite/process-image", sat.ProcessImage)
	api.Get("/satellite/preview/:id", sat.Preview)

	api.Post("/export/gee", exp.ExportGEE)

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		log.Fatalf("PostGIS extension setup failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Shapefile{}); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	spatialIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_shapefiles_geom ON shapefiles USING GIST (geom)`,
		`CREATE INDEX IF NOT EXISTS idx_shapefiles_bbox ON shapefiles USING GIST (bbox)`,
	}
	for _, stmt := range spatialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatalf("Spatial index setup failed: %v", err)
		}
	}
}

func InitMinIOClient(cfg *config.Config) *minio.Client {
	minioClient, err := storage.NewMinioClient(cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}
