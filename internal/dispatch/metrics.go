package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"notifygate/internal/types"
)

// MetricResult is the outcome dimension value for a dispatch attempt metric.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailure MetricResult = "failure"
)

// Metric and dimension names emitted to CloudWatch.
const (
	metricDispatchAttempt = "DispatchAttempt"
	metricDispatchLatency = "DispatchLatency"
	dimChannel            = "Channel"
	dimResult             = "Result"
)

// Metrics records per-attempt dispatch telemetry. Emission is best-effort:
// a metrics failure must never affect a dispatch outcome.
type Metrics interface {
	// RecordDispatch counts one attempt with its result.
	RecordDispatch(ctx context.Context, channel types.Channel, result MetricResult)

	// RecordLatency records the duration of one transport send.
	RecordLatency(ctx context.Context, channel types.Channel, duration time.Duration)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics implements Metrics by publishing to a CloudWatch
// namespace.
//
// Metrics emitted:
//   - DispatchAttempt: Dims {Channel, Result} -- on every dispatch outcome
//   - DispatchLatency: Dims {Channel} -- time taken for the transport send
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// Compile-time assertion that CloudWatchMetrics implements Metrics.
var _ Metrics = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordDispatch emits a DispatchAttempt metric with Channel and Result
// dimensions.
func (m *CloudWatchMetrics) RecordDispatch(ctx context.Context, channel types.Channel, result MetricResult) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricDispatchAttempt),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimChannel),
						Value: aws.String(string(channel)),
					},
					{
						Name:  aws.String(dimResult),
						Value: aws.String(string(result)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record dispatch metric",
			"error", err.Error(),
			"channel", string(channel),
			"result", string(result),
		)
	}
}

// RecordLatency emits a DispatchLatency metric with the Channel dimension.
// Duration is recorded in milliseconds for CloudWatch precision.
func (m *CloudWatchMetrics) RecordLatency(ctx context.Context, channel types.Channel, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricDispatchLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimChannel),
						Value: aws.String(string(channel)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record latency metric",
			"error", err.Error(),
			"channel", string(channel),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// NoopMetrics implements Metrics by discarding every record. Used in local
// mode and wherever metrics are disabled.
type NoopMetrics struct{}

var _ Metrics = NoopMetrics{}

func (NoopMetrics) RecordDispatch(context.Context, types.Channel, MetricResult) {}
func (NoopMetrics) RecordLatency(context.Context, types.Channel, time.Duration) {}
