package endpoint

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProducerRequiresExactlyOneSource(t *testing.T) {
	_, err := BuildProducer(Sources{})
	assert.Error(t, err, "no producer source must fail")

	_, err = BuildProducer(Sources{FileIn: "a", PipeIn: "b"})
	assert.Error(t, err, "two producer sources must fail")

	p, err := BuildProducer(Sources{SocketIn: "host:1234"})
	require.NoError(t, err)
	assert.Equal(t, "host:1234", p.Name())
}

func TestBuildConsumersEnforcesCountBounds(t *testing.T) {
	_, err := BuildConsumers(Sources{})
	assert.Error(t, err, "zero consumers must fail")

	consumers, err := BuildConsumers(Sources{FileOut: "out.bin", SocketOut: ":3634"})
	require.NoError(t, err)
	require.Len(t, consumers, 2)
	assert.Equal(t, "out.bin", consumers[0].Name())
	assert.Equal(t, ":3634", consumers[1].Name())
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := splitHostPort("")
	require.NoError(t, err)
	assert.Equal(t, "", host)
	assert.Equal(t, "3634", port)

	host, port, err = splitHostPort("example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "3634", port)

	host, port, err = splitHostPort("example.com:9000")
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "9000", port)
}

func TestSteppedBackOffReplaysScheduleThenStops(t *testing.T) {
	schedule := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}
	b := &steppedBackOff{schedule: schedule}

	assert.Equal(t, 1*time.Second, b.NextBackOff())
	assert.Equal(t, 3*time.Second, b.NextBackOff())
	assert.Equal(t, 5*time.Second, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff(), "schedule exhausted, retries must stop")

	b.Reset()
	assert.Equal(t, 1*time.Second, b.NextBackOff(), "reset restarts the schedule")
}
