package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back2basic/linkcollector/model"
)

func sampleLinks() []model.LinkStat {
	return []model.LinkStat{
		{ID: 1, Prefix: "/ndn/edu/arizona", Address: "10.0.0.1", Timestamp: model.UnsetTimestamp},
		{ID: 2, Prefix: "/ndn/edu/arizona", Address: "10.0.0.2", Timestamp: "2024-05-01T10:00:00.000000", TxBytes: 10, RxBytes: 20},
	}
}

func TestStatFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	sf := NewStatFile(path)

	require.NoError(t, sf.Write(sampleLinks()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"LI:1-TM:0-TX:0-RX:0\n"+
			"LI:2-TM:2024-05-01T10:00:00.000000-TX:10-RX:20\n",
		string(data))
}

func TestStatFileWriteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	sf := NewStatFile(path)
	links := sampleLinks()

	require.NoError(t, sf.Write(links))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, sf.Write(links))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStatFileWriteTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	sf := NewStatFile(path)

	require.NoError(t, sf.Write(sampleLinks()))
	require.NoError(t, sf.Write(sampleLinks()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "LI:1-TM:0-TX:0-RX:0\n", string(data))
}

func TestStatFileWriteUnwritable(t *testing.T) {
	sf := NewStatFile(filepath.Join(t.TempDir(), "missing", "dir", "stat"))
	assert.Error(t, sf.Write(sampleLinks()))
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		want    Entry
		wantErr bool
	}{
		{
			name: "unset",
			line: "LI:4-TM:0-TX:0-RX:0",
			want: Entry{LinkID: 4, Timestamp: "0"},
		},
		{
			name: "dashed timestamp",
			line: "LI:12-TM:2024-05-01T10:00:00-TX:800-RX:1600\n",
			want: Entry{LinkID: 12, Timestamp: "2024-05-01T10:00:00", TxBytes: 800, RxBytes: 1600},
		},
		{name: "no id", line: "TM:0-TX:0-RX:0", wantErr: true},
		{name: "missing rx", line: "LI:1-TM:0-TX:0", wantErr: true},
		{name: "bad counter", line: "LI:1-TM:0-TX:x-RX:0", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLine(tc.line)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadStatFileSkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	require.NoError(t, os.WriteFile(path, []byte("LI:1-TM:0-TX:0-RX:0\ngarbage\nLI:2-TM:T-TX:5-RX:6\n"), 0o644))

	entries, err := ReadStatFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[1].LinkID)
	assert.Equal(t, uint64(5), entries[1].TxBytes)
}
