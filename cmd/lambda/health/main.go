// Health Check Lambda entry point
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"roomy-ai-core/internal/config"
	"roomy-ai-core/internal/handlers"
	"roomy-ai-core/internal/services/database"
	"roomy-ai-core/internal/utils"
)

func main() {
	cfg, _ := config.Load()

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	// A missing database still answers, reporting it as not configured.
	var checker handlers.HealthChecker
	db, err := database.New(cfg)
	if err != nil {
		utils.GetLogger().Warn("Health check running without database", zap.Error(err))
	} else {
		defer db.Close()
		checker = db
	}

	handler := handlers.NewHealthHandler(checker, os.Getenv("SERVICE_VERSION"), cfg.Stage)
	lambda.Start(handler.Handle)
}
