// Package telemetry publishes operational metrics to CloudWatch.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/rs/zerolog"
)

// publishTimeout bounds fire-and-forget metric emission.
const publishTimeout = 5 * time.Second

// metricsAPI is the slice of the CloudWatch client the publisher needs.
// *cloudwatch.Client satisfies it.
type metricsAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher records request latencies. The zero-value-like disabled publisher
// (from NewDisabled) accepts and drops everything, so call sites never branch
// on whether metrics are configured.
type Publisher struct {
	api       metricsAPI
	namespace string
	log       zerolog.Logger
	enabled   bool
}

// New builds a CloudWatch-backed publisher using the default AWS credential
// chain for the given region.
func New(ctx context.Context, region, namespace string, log zerolog.Logger) (*Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewWithAPI(cloudwatch.NewFromConfig(cfg), namespace, log), nil
}

// NewWithAPI wires an explicit CloudWatch API, for tests.
func NewWithAPI(api metricsAPI, namespace string, log zerolog.Logger) *Publisher {
	return &Publisher{api: api, namespace: namespace, log: log, enabled: true}
}

// NewDisabled returns a publisher that drops all metrics.
func NewDisabled() *Publisher {
	return &Publisher{}
}

// RecordLatency emits an APILatency datum (milliseconds) tagged with the
// endpoint name. Emission is fire-and-forget: it never blocks the caller and
// failures are only logged.
func (p *Publisher) RecordLatency(endpoint string, elapsed time.Duration) {
	if !p.enabled {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_, err := p.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(p.namespace),
			MetricData: []types.MetricDatum{
				{
					MetricName: aws.String("APILatency"),
					Dimensions: []types.Dimension{
						{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
					},
					Value: aws.Float64(float64(elapsed.Milliseconds())),
					Unit:  types.StandardUnitMilliseconds,
				},
			},
		})
		if err != nil {
			p.log.Warn().Err(err).Str("endpoint", endpoint).Msg("cloudwatch publish failed")
		}
	}()
}
