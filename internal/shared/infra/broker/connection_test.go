package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetStatus_TracksTransitions(t *testing.T) {
	conn := NewConnection([]string{"localhost:9092"}, zap.NewNop())

	st := conn.GetStatus()
	assert.False(t, st.IsConnected)
	assert.Nil(t, st.LastConnectedAt)
	assert.Nil(t, st.LastFailureAt)

	conn.markUp()
	st = conn.GetStatus()
	assert.True(t, st.IsConnected)
	assert.NotNil(t, st.LastConnectedAt)
	assert.Empty(t, st.LastError)

	conn.markDown(errors.New("connection reset"))
	st = conn.GetStatus()
	assert.False(t, st.IsConnected)
	assert.NotNil(t, st.LastFailureAt)
	assert.Equal(t, "connection reset", st.LastError)

	// Una reconexión limpia el último error pero conserva los contadores.
	conn.recordPublishFailure(errors.New("timeout"))
	conn.markUp()
	st = conn.GetStatus()
	assert.True(t, st.IsConnected)
	assert.Empty(t, st.LastError)
	assert.Equal(t, uint64(1), st.PublishFailures)
}

func TestCounters_AreIndependent(t *testing.T) {
	conn := NewConnection([]string{"localhost:9092"}, zap.NewNop())
	conn.markUp()

	conn.recordPublish()
	conn.recordPublish()
	conn.recordPublishFailure(errors.New("boom"))

	st := conn.GetStatus()
	assert.Equal(t, uint64(2), st.EventsPublished)
	assert.Equal(t, uint64(1), st.PublishFailures)
	assert.False(t, st.IsConnected, "un fallo de publicación marca la conexión caída")
	assert.Equal(t, "kafka", st.ConnectionType)
}
