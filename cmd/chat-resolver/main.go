package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"dental-order-agent/handler"
	"dental-order-agent/internal/config"
	"dental-order-agent/internal/integrations/appsync"
	"dental-order-agent/internal/integrations/bedrock"
	"dental-order-agent/internal/integrations/paramstore"
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
	cfg, err := config.LoadChatResolver(ctx, os.LookupEnv, ssmClient)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	agent, err := bedrock.New(awsbedrock.NewFromConfig(awsCfg), cfg.AgentID, cfg.AgentAliasID)
	if err != nil {
		slog.Error("failed to create agent client", "err", err)
		os.Exit(1)
	}
	publisher, err := appsync.NewClient(cfg.GraphQLEndpoint)
	if err != nil {
		slog.Error("failed to create AppSync client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(agent, publisher, cfg.EnableTrace)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	letterService, err := usecase.NewLetterService(agent, cfg.EnableTrace)
	if err != nil {
		slog.Error("failed to create letter service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewResolverHandler(chatService, letterService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("chat resolver ready", "agent_id", cfg.AgentID, "trace", cfg.EnableTrace)
	lambda.Start(h.Handle)
}
