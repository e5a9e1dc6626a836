package app

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lumeno/academy-api/api"
	"github.com/lumeno/academy-api/config"
	"github.com/lumeno/academy-api/router"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/services/cron"
	"github.com/lumeno/academy-api/services/storage"
	"gorm.io/gorm"

	"github.com/lumeno/academy-api/database"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err

	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	// Seed baseline tiers and the admin account
	if db, ok := store.GetDB().(*gorm.DB); ok {
		if err := database.NewSeeder(db).SeedAll(); err != nil {
			print("Warning: Failed to seed baseline data\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			spacesClient, spacesErr := storage.NewSpacesClient(storage.SpacesConfig{
				AccessKey: getEnv.SPACES_ACCESS_KEY,
				SecretKey: getEnv.SPACES_SECRET_KEY,
				Bucket:    getEnv.SPACES_BUCKET,
				Region:    getEnv.SPACES_REGION,
				Endpoint:  getEnv.SPACES_ENDPOINT,
			})
			if spacesErr != nil {
				print("Warning: Failed to initialize storage client for cron jobs\n")
				print("Error: ", spacesErr.Error(), "\n")
			} else {
				uploadService := services.NewUploadService(db, spacesClient)
				cronManager = cron.NewCronManager(db, uploadService)
				if err := cronManager.Start(); err != nil {
					print("Warning: Failed to start cron jobs\n")
					print("Error: ", err.Error(), "\n")
					// Don't fail the app, just log the warning
				}
			}
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	// Custom Logger
	app.Use(logger.New())

	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store)

	// Get the PORT & Start the Server
	return server.Run()

}
