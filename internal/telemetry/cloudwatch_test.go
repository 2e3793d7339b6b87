package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingAPI struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	done   chan struct{}
}

func (c *capturingAPI) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, in)
	c.mu.Unlock()
	c.done <- struct{}{}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordLatencyPublishesDatum(t *testing.T) {
	api := &capturingAPI{done: make(chan struct{}, 1)}
	p := NewWithAPI(api, "FooDiary", zerolog.Nop())

	p.RecordLatency("chat_with_bot", 250*time.Millisecond)

	select {
	case <-api.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no metric published")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "FooDiary", *in.Namespace)
	require.Len(t, in.MetricData, 1)
	datum := in.MetricData[0]
	assert.Equal(t, "APILatency", *datum.MetricName)
	assert.Equal(t, float64(250), *datum.Value)
	require.Len(t, datum.Dimensions, 1)
	assert.Equal(t, "Endpoint", *datum.Dimensions[0].Name)
	assert.Equal(t, "chat_with_bot", *datum.Dimensions[0].Value)
}

func TestDisabledPublisherDropsEverything(t *testing.T) {
	p := NewDisabled()
	// Must not panic on the nil API.
	p.RecordLatency("chat_with_bot", time.Second)
}
