package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the SNS client surface the service uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsService struct {
	client   SNSAPI
	topicARN string
}

func (s *snsService) NotifyPromotionSucceeded(ctx context.Context, artifactID, title string, copiedFiles int) error {
	return s.publish(ctx, promotionSucceededPayload(artifactID, title, copiedFiles))
}

func (s *snsService) NotifyPromotionFailed(ctx context.Context, artifactID, reason string) error {
	return s.publish(ctx, promotionFailedPayload(artifactID, reason))
}

func (s *snsService) NotifyBatchCompleted(ctx context.Context, summary BatchSummary) error {
	return s.publish(ctx, batchCompletedPayload(summary))
}

func (s *snsService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	return s.publish(ctx, errorPayload(err, contextLabel))
}

func (s *snsService) TestNotification(ctx context.Context) error {
	return s.publish(ctx, testPayload())
}

func (s *snsService) publish(ctx context.Context, data payload) error {
	if s == nil || s.client == nil {
		return nil
	}
	if _, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(data.title),
		Message:  aws.String(data.message),
	}); err != nil {
		return fmt.Errorf("publish sns notification: %w", err)
	}
	return nil
}
