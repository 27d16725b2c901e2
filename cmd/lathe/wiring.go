package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"lathe/internal/blob"
	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/fixtures"
	"lathe/internal/notify"
	"lathe/internal/promotion"
	"lathe/internal/scheduler"
	"lathe/internal/services/audioproc"
	"lathe/internal/services/pipelinetest"
)

// components is the fully wired promotion stack for one backend.
type components struct {
	cfg        *config.Config
	staging    catalog.Store
	production catalog.Store
	blobs      blob.Store
	notifier   notify.Service
	validator  *promotion.Validator
	workflow   *promotion.Workflow
	scheduler  *scheduler.Scheduler
	seeder     *fixtures.Seeder

	// runLock is set only on the local backend, where nothing else
	// prevents two batch runs from interleaving.
	runLock *scheduler.RunLock

	close func() error
}

func (c *commandContext) buildComponents(ctx context.Context) (*components, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	comp := &components{cfg: cfg, close: func() error { return nil }}

	var runner pipelinetest.Runner
	var processor fixtures.Processor
	var timer scheduler.Timer = scheduler.NopTimer{}

	switch cfg.Backend {
	case config.BackendAWS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if endpoint := cfg.AWS.Endpoint; endpoint != "" {
			awsCfg.BaseEndpoint = &endpoint
		}

		dynamoClient := dynamodb.NewFromConfig(awsCfg)
		comp.staging, err = catalog.NewDynamoStore(dynamoClient, cfg.Staging.MetadataTable)
		if err != nil {
			return nil, err
		}
		comp.production, err = catalog.NewDynamoStore(dynamoClient, cfg.Production.MetadataTable)
		if err != nil {
			return nil, err
		}
		comp.blobs, err = blob.NewS3Store(s3.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
		comp.notifier = notify.NewService(cfg, sns.NewFromConfig(awsCfg))

		lambdaClient := awslambda.NewFromConfig(awsCfg)
		if fn := cfg.Pipeline.TesterFunction; fn != "" {
			runner, err = pipelinetest.NewClient(lambdaClient, fn)
			if err != nil {
				return nil, err
			}
		}
		if fn := cfg.Pipeline.ProcessorFunction; fn != "" {
			processor, err = audioproc.NewClient(lambdaClient, fn)
			if err != nil {
				return nil, err
			}
		}
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

	case config.BackendLocal:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		db, err := catalog.OpenSQLite(cfg.Local.DataDir)
		if err != nil {
			return nil, err
		}
		comp.close = db.Close
		comp.staging = db.Environment(cfg.Staging.Name)
		comp.production = db.Environment(cfg.Production.Name)

		comp.blobs, err = blob.NewFSStore(cfg.Local.DataDir)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		comp.notifier = notify.NewService(cfg, nil)
		runner = pipelinetest.NewLocalRunner(comp.production, comp.blobs, cfg.Production.Bucket, cfg.Promotion.KeyPrefix)
		comp.runLock = scheduler.NewRunLock(cfg.Local.DataDir)

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	comp.validator = promotion.NewValidator(cfg, comp.staging, comp.blobs, logger)
	executor := promotion.NewExecutor(cfg, comp.staging, comp.production, comp.blobs, comp.notifier, logger)
	verifier := promotion.NewVerifier(runner, logger)
	comp.workflow = promotion.NewWorkflow(comp.validator, executor, verifier, logger)
	comp.scheduler = scheduler.New(cfg, comp.staging, comp.workflow, comp.notifier, timer, logger)
	comp.seeder = fixtures.NewSeeder(cfg, comp.staging, comp.blobs, logger)
	if processor != nil {
		comp.seeder = comp.seeder.WithProcessor(processor)
	}
	return comp, nil
}
