package proxy

import (
	"bufio"
	"net"
	"testing"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/relayhttp/engine/errors"
	"github.com/relayhttp/engine/metrics"
	"github.com/relayhttp/engine/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// each test builds its own gometrics.Registry, since NewProxy(nil) would
// otherwise register every counter into the shared rcrowley DefaultRegistry
// and the assertions below would see other tests' increments too.
func TestConnection_Metrics(t *testing.T) {
	dial, origin := pipeDialer()
	mp := metrics.NewProxy(gometrics.NewRegistry())

	client := newFakeClient("GET", "/x")
	conn := NewConnection(Origin{Host: "example.com", Port: 80}, false, client,
		time.Second, time.Second, time.Second, WithDialer(dial), WithMetrics(mp))

	go func() {
		reader := bufio.NewReader(origin)
		for {
			l, _ := reader.ReadString('\n')
			if l == "\r\n" {
				break
			}
		}

		_, _ = origin.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
		origin.Close()
	}()

	conn.Run()

	require.True(t, client.finished)
	assert.EqualValues(t, 1, mp.ConnectAttempts.Count())
	assert.EqualValues(t, 0, mp.ConnectFailures.Count())
	assert.EqualValues(t, 1, mp.ConnectDuration.Count())
	assert.EqualValues(t, 1, mp.WriteDuration.Count())
	assert.EqualValues(t, 1, mp.ReadDuration.Count())
	assert.Positive(t, mp.BytesWritten.Count())
	assert.Positive(t, mp.BytesRead.Count())
}

func TestConnection_MetricsConnectFailure(t *testing.T) {
	mp := metrics.NewProxy(gometrics.NewRegistry())
	client := newFakeClient("GET", "/x")

	conn := NewConnection(Origin{Host: "example.com", Port: 80}, false, client,
		time.Second, time.Second, time.Second,
		WithDialer(func(_, _ string, _ time.Duration) (net.Conn, error) {
			return nil, assert.AnError
		}),
		WithMetrics(mp))

	conn.Run()

	require.True(t, client.finished)
	assert.EqualValues(t, 1, mp.ConnectAttempts.Count())
	assert.EqualValues(t, 1, mp.ConnectFailures.Count())
}

// burst=0 denies every connect attempt outright for any positive
// maxPerSecond, since a limiter can never hold enough tokens to satisfy
// even the first request (a non-positive maxPerSecond disables the
// throttle altogether).
func TestConnection_ConnectThrottled(t *testing.T) {
	client := newFakeClient("GET", "/x")
	throttle := ratelimit.New(1, 0)

	conn := NewConnection(Origin{Host: "example.com", Port: 80}, false, client,
		time.Second, time.Second, time.Second, WithThrottle(throttle))

	conn.Run()

	require.True(t, client.finished)
	assert.ErrorIs(t, client.finishErr, errors.ErrConnectThrottled)
}

func TestConnection_ThrottleAllowsWithinBudget(t *testing.T) {
	dial, origin := pipeDialer()
	throttle := ratelimit.New(100, 10)

	client := newFakeClient("GET", "/x")
	conn := NewConnection(Origin{Host: "example.com", Port: 80}, false, client,
		time.Second, time.Second, time.Second, WithDialer(dial), WithThrottle(throttle))

	go func() {
		reader := bufio.NewReader(origin)
		for {
			l, _ := reader.ReadString('\n')
			if l == "\r\n" {
				break
			}
		}

		_, _ = origin.Write([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
		origin.Close()
	}()

	conn.Run()

	require.True(t, client.finished)
	assert.NoError(t, client.finishErr)
}
