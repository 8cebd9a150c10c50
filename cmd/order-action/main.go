package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"dental-order-agent/handler"
	"dental-order-agent/internal/config"
	"dental-order-agent/internal/integrations/paramstore"
	"dental-order-agent/internal/repository"
	"dental-order-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// ---- AWS SDK config ----
	awsCfg, err := config.LoadAWS(ctx, "")
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Configuration (read only here) ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadOrderAction(ctx, os.LookupEnv, ssmClient)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	var blobs repository.BlobStore
	switch cfg.Store {
	case config.StoreDynamoDB:
		blobs, err = repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Table)
	default:
		blobs, err = repository.NewS3Store(awss3.NewFromConfig(awsCfg), cfg.Bucket)
	}
	if err != nil {
		slog.Error("failed to create order store", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	orders, err := repository.NewOrders(blobs)
	if err != nil {
		slog.Error("failed to create order repository", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	orderService, err := usecase.NewOrderService(orders)
	if err != nil {
		slog.Error("failed to create order service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewActionHandler(orderService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("order action ready", "store", cfg.Store, "bucket", cfg.Bucket, "table", cfg.Table)
	lambda.Start(h.Handle)
}
