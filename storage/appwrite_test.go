package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(addr string) string { return r[addr] }

func TestAppwritePushUpdatedLinks(t *testing.T) {
	rows := map[string]map[string]interface{}{}
	a := newAppwrite("collector-1", func(rowID string, data map[string]interface{}) error {
		rows[rowID] = data
		return nil
	}, staticResolver{"10.0.0.2": "peer.example.net"}, nil)

	require.NoError(t, a.Push(context.Background(), sampleLinks()))

	require.Len(t, rows, 1)
	row := rows[makeRowID("collector-1", 2)]
	require.NotNil(t, row)
	assert.Equal(t, "peer.example.net", row["dns"])
	assert.Equal(t, uint64(10), row["tx_bytes"])
	assert.Equal(t, "/ndn/edu/arizona", row["prefix"])
}

func TestAppwritePushReportsFailure(t *testing.T) {
	a := newAppwrite("h", func(string, map[string]interface{}) error {
		return errors.New("unavailable")
	}, nil, nil)

	assert.Error(t, a.Push(context.Background(), sampleLinks()))
}

func TestMakeRowIDStable(t *testing.T) {
	id := makeRowID("h", 3)
	assert.Len(t, id, 32)
	assert.Equal(t, id, makeRowID("h", 3))
	assert.NotEqual(t, id, makeRowID("h", 4))
}

func TestNewAppwriteFromEnvDisabled(t *testing.T) {
	t.Setenv("APPWRITE_ENDPOINT", "")
	assert.Nil(t, NewAppwriteFromEnv(nil, nil))
}
