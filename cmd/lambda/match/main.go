// Match Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"roomy-ai-core/internal/app"
	"roomy-ai-core/internal/config"
	"roomy-ai-core/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		utils.GetLogger().Fatal("Failed to initialize service", zap.Error(err))
	}
	defer a.Close()

	lambda.Start(a.Match.Handle)
}
