package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux/repository"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/transcode"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/worker"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/db/aws"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/db/postgres"
	clientRedis "github.com/amankumarsingh77/cloud-video-remuxer/pkg/db/redis"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

func main() {
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected")
	defer redisClient.Close()

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	jobRepo := repository.NewJobRepo(psqlDB)
	awsRepo := repository.NewAwsRepository(s3Client, presignClient)
	cacheRepo := repository.NewRemuxRedisRepo(redisClient)

	stats := worker.NewStats()
	invoker := transcode.NewFFmpeg(cfg, appLogger)
	processor := worker.NewProcessor(cfg, appLogger, jobRepo, awsRepo, cacheRepo, invoker, stats)
	dispatcher := worker.NewDispatcher(cfg.Worker.BatchSize, processor, appLogger)
	scheduler := worker.NewScheduler(cfg, appLogger, jobRepo, cacheRepo, dispatcher, stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		appLogger.Infof("received %s, shutting down", sig)
		cancel()
	}()

	// Run blocks until cancelled and flushes a final stats report on exit.
	scheduler.Run(ctx)
}
