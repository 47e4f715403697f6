package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	connected    bool
	connectErr   error
	connectCalls int
	messages     []published
}

func (f *fakeClient) Connect(context.Context) error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.messages = append(f.messages, published{topic: topic, payload: payload})
	return nil
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Disconnect()       { f.connected = false }

func sampleCatch() *entities.Catch {
	return &entities.Catch{
		ID:        7,
		MemberID:  3,
		SpeciesID: 2,
		LengthCM:  62.5,
		WeightKG:  3.1,
		Location:  "Praia do Tombo",
		CaughtAt:  time.Date(2026, 3, 1, 6, 30, 0, 0, time.FixedZone("BRT", -3*60*60)),
		Member:    &entities.Member{Name: "Ana Souza", Nickname: "Aninha"},
		Species:   &entities.Species{Name: "Robalo-flecha"},
	}
}

func TestPublisher_PublishCatch(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	p := NewPublisher(fc, "club/")

	require.NoError(t, p.PublishCatch(t.Context(), NewCatchEventDTO(sampleCatch(), 125)))
	assert.Equal(t, 1, fc.connectCalls)

	require.Len(t, fc.messages, 1)
	assert.Equal(t, "club/catches", fc.messages[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.messages[0].payload, &got))
	assert.Equal(t, EventCatchCreated, got["event"])
	assert.Equal(t, "Aninha", got["member"])
	assert.Equal(t, "Robalo-flecha", got["species"])
	assert.InDelta(t, 125, got["points"], 0)
	assert.Equal(t, "2026-03-01T09:30:00Z", got["caughtAt"])
	assert.NotContains(t, got, "bait", "empty bait is omitted")

	require.NoError(t, p.PublishCatch(t.Context(), NewCatchEventDTO(sampleCatch(), 125)))
	assert.Equal(t, 1, fc.connectCalls, "connected client is reused")
}

func TestPublisher_ConnectFailure(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{connectErr: errors.NewStd("broker down")}
	p := NewPublisher(fc, "")

	err := p.PublishCatch(t.Context(), NewCatchEventDTO(sampleCatch(), 0))
	require.Error(t, err)
	assert.Empty(t, fc.messages)
	assert.Equal(t, "fishclub/catches", p.CatchTopic())
}

func TestClient_PublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	m, err := metrics.NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	c := NewClient(DefaultConfig(), m)
	t.Cleanup(c.Disconnect)

	assert.False(t, c.IsConnected())
	err = c.Publish(t.Context(), "fishclub/catches", []byte("{}"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
}

func TestClient_InvalidBroker(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Broker = "not a url"
	c := NewClient(cfg, nil)
	t.Cleanup(c.Disconnect)

	err := c.Connect(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	// the cooldown rejects an immediate retry
	err = c.Connect(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnect))

	c.Disconnect()
}
