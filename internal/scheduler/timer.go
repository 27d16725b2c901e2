package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"

	"lathe/internal/services"
)

// BatchPayload is the input delivered to a rescheduled batch invocation.
type BatchPayload struct {
	Action      string `json:"action"`
	ScheduledBy string `json:"scheduledBy"`
	ScheduledAt string `json:"scheduledAt"`
}

// Timer registers a one-shot future batch invocation.
type Timer interface {
	RunAt(ctx context.Context, at time.Time, payload BatchPayload) error
}

// NopTimer discards scheduling requests. Used when no scheduling facility
// is configured; follow-up runs then rely on the operator.
type NopTimer struct{}

func (NopTimer) RunAt(context.Context, time.Time, BatchPayload) error { return nil }

// SchedulerAPI is the EventBridge Scheduler client surface the timer uses.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, params *awsscheduler.CreateScheduleInput, optFns ...func(*awsscheduler.Options)) (*awsscheduler.CreateScheduleOutput, error)
}

// EventBridgeTimer creates one-shot EventBridge schedules that invoke the
// batch entry point and delete themselves after firing.
type EventBridgeTimer struct {
	client    SchedulerAPI
	group     string
	roleARN   string
	targetARN string
}

// NewEventBridgeTimer binds a timer to a schedule group and Lambda target.
func NewEventBridgeTimer(client SchedulerAPI, group, roleARN, targetARN string) (*EventBridgeTimer, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "timer", "scheduler client is required", nil)
	}
	if strings.TrimSpace(roleARN) == "" || strings.TrimSpace(targetARN) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "timer", "schedule role and target ARNs are required", nil)
	}
	return &EventBridgeTimer{client: client, group: group, roleARN: roleARN, targetARN: targetARN}, nil
}

func (t *EventBridgeTimer) RunAt(ctx context.Context, at time.Time, payload BatchPayload) error {
	input, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrExternalCall, "scheduler", "run-at", "encode payload", err)
	}

	at = at.UTC()
	name := fmt.Sprintf("lathe-batch-%d", at.Unix())
	create := &awsscheduler.CreateScheduleInput{
		Name: aws.String(name),
		// EventBridge one-shot expressions take a local timestamp without
		// an offset; the timezone pins it to UTC.
		ScheduleExpression:         aws.String(fmt.Sprintf("at(%s)", at.Format("2006-01-02T15:04:05"))),
		ScheduleExpressionTimezone: aws.String("UTC"),
		ActionAfterCompletion:      schedulertypes.ActionAfterCompletionDelete,
		FlexibleTimeWindow: &schedulertypes.FlexibleTimeWindow{
			Mode: schedulertypes.FlexibleTimeWindowModeOff,
		},
		Target: &schedulertypes.Target{
			Arn:     aws.String(t.targetARN),
			RoleArn: aws.String(t.roleARN),
			Input:   aws.String(string(input)),
		},
	}
	if strings.TrimSpace(t.group) != "" {
		create.GroupName = aws.String(t.group)
	}

	if _, err := t.client.CreateSchedule(ctx, create); err != nil {
		return services.Wrap(services.ErrExternalCall, "scheduler", "run-at", name, err)
	}
	return nil
}
