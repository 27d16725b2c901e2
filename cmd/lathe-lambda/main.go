package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"lathe/internal/api"
	"lathe/internal/blob"
	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/logging"
	"lathe/internal/notify"
	"lathe/internal/promotion"
	"lathe/internal/scheduler"
	"lathe/internal/services/pipelinetest"
)

func main() {
	logger, err := logging.New(logging.Options{
		Level:  envOr("LOG_LEVEL", "info"),
		Format: "json",
		Output: os.Stderr,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	handler, err := buildHandler(context.Background(), logger)
	if err != nil {
		logger.Error("handler construction failed", logging.Error(err))
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, payload json.RawMessage) (api.Response, error) {
		return handler.HandleRaw(ctx, payload), nil
	})
}

// buildHandler wires the AWS-backed promotion stack from the function's
// environment. Environment names, thresholds, and pacing keep their
// defaults unless overridden.
func buildHandler(ctx context.Context, logger *slog.Logger) (*api.Handler, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if endpoint := cfg.AWS.Endpoint; endpoint != "" {
		awsCfg.BaseEndpoint = &endpoint
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	staging, err := catalog.NewDynamoStore(dynamoClient, cfg.Staging.MetadataTable)
	if err != nil {
		return nil, err
	}
	production, err := catalog.NewDynamoStore(dynamoClient, cfg.Production.MetadataTable)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.NewS3Store(s3.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}
	notifier := notify.NewService(cfg, sns.NewFromConfig(awsCfg))

	var runner pipelinetest.Runner
	if fn := cfg.Pipeline.TesterFunction; fn != "" {
		runner, err = pipelinetest.NewClient(awslambda.NewFromConfig(awsCfg), fn)
		if err != nil {
			return nil, err
		}
	}

	var timer scheduler.Timer = scheduler.NopTimer{}
	if cfg.Pipeline.ScheduleRoleARN != "" && cfg.Pipeline.ScheduleTargetARN != "" {
		timer, err = scheduler.NewEventBridgeTimer(
			awsscheduler.NewFromConfig(awsCfg),
			cfg.Pipeline.ScheduleGroup,
			cfg.Pipeline.ScheduleRoleARN,
			cfg.Pipeline.ScheduleTargetARN,
		)
		if err != nil {
			return nil, err
		}
	}

	validator := promotion.NewValidator(cfg, staging, blobs, logger)
	executor := promotion.NewExecutor(cfg, staging, production, blobs, notifier, logger)
	verifier := promotion.NewVerifier(runner, logger)
	workflow := promotion.NewWorkflow(validator, executor, verifier, logger)
	sched := scheduler.New(cfg, staging, workflow, notifier, timer, logger)

	return api.NewHandler(sched, workflow, validator, logger), nil
}

func configFromEnv() (*config.Config, error) {
	cfg := config.Default()
	cfg.Backend = config.BackendAWS

	setEnv(&cfg.AWS.Region, "AWS_REGION")
	setEnv(&cfg.AWS.Endpoint, "AWS_ENDPOINT_URL")
	setEnv(&cfg.Staging.Bucket, "STAGING_BUCKET")
	setEnv(&cfg.Staging.MetadataTable, "STAGING_METADATA_TABLE")
	setEnv(&cfg.Production.Bucket, "PRODUCTION_BUCKET")
	setEnv(&cfg.Production.MetadataTable, "PRODUCTION_METADATA_TABLE")
	setEnv(&cfg.Notifications.SNSTopicARN, "NOTIFICATION_TOPIC_ARN")
	setEnv(&cfg.Pipeline.TesterFunction, "PIPELINE_TESTER_FUNCTION")
	setEnv(&cfg.Pipeline.ScheduleGroup, "SCHEDULE_GROUP")
	setEnv(&cfg.Pipeline.ScheduleRoleARN, "SCHEDULE_ROLE_ARN")
	setEnv(&cfg.Pipeline.ScheduleTargetARN, "SCHEDULE_TARGET_ARN")

	if raw := os.Getenv("MAX_BATCH_SIZE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse MAX_BATCH_SIZE: %w", err)
		}
		cfg.Promotion.MaxBatchSize = parsed
	}
	if raw := os.Getenv("GRACE_PERIOD_MINUTES"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse GRACE_PERIOD_MINUTES: %w", err)
		}
		cfg.Promotion.GracePeriodMinutes = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
