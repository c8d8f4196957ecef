package main

import (
	"context"

	"quicktable/config"
	"quicktable/di"
	"quicktable/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	runner := di.InitializeJobs()
	runner.Start(context.Background())

	http := di.InitializeService()
	http.Serve()
}
