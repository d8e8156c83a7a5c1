package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkStatLine(t *testing.T) {
	l := NewLink("/ndn/edu/arizona", 7, "10.0.0.1")
	assert.Equal(t, "LI:7-TM:0-TX:0-RX:0", l.Snapshot().Line())

	l.Stats.Set(1200, 3400, "2024-05-01T10:00:00.000000")
	assert.Equal(t, "LI:7-TM:2024-05-01T10:00:00.000000-TX:1200-RX:3400", l.Snapshot().Line())
}

func TestRequestName(t *testing.T) {
	req := Request{Prefix: "/ndn/edu/wustl", Addresses: []string{"10.0.0.1", "10.0.0.2"}}
	assert.Equal(t, "/ndn/edu/wustl/ndnmap/stats/10.0.0.1/10.0.0.2", req.Name())
}

func TestParseCounterUnit(t *testing.T) {
	u, err := ParseCounterUnit("")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), u.Scale())

	u, err = ParseCounterUnit("bits")
	assert.NoError(t, err)
	assert.Equal(t, uint64(8), u.Scale())

	_, err = ParseCounterUnit("octets")
	assert.Error(t, err)
}
