package storage

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"
)

// StatFile is the flat store read by the map website: one line per link,
// rewritten in full on every write.
type StatFile struct {
	path string
}

func NewStatFile(path string) *StatFile {
	return &StatFile{path: path}
}

func (s *StatFile) Path() string { return s.path }

// Write truncates the file and writes every link in the given order.
func (s *StatFile) Write(links []model.LinkStat) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "open stat file")
	}

	w := bufio.NewWriter(f)
	for _, l := range links {
		w.WriteString(l.Line())
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write stat file")
	}
	return f.Close()
}

// Entry is one parsed stat file line.
type Entry struct {
	LinkID    int
	Timestamp string
	TxBytes   uint64
	RxBytes   uint64
}

// ReadStatFile parses a stat file. Lines that do not parse are skipped.
func ReadStatFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		e, err := ParseLine(sc.Text())
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ParseLine parses LI:<id>-TM:<timestamp>-TX:<tx>-RX:<rx>.
// The timestamp may itself contain dashes.
func ParseLine(line string) (Entry, error) {
	var e Entry
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "LI:") {
		return e, errors.Errorf("missing LI field: %q", line)
	}
	tm := strings.Index(line, "-TM:")
	tx := strings.LastIndex(line, "-TX:")
	rx := strings.LastIndex(line, "-RX:")
	if tm < 0 || tx < tm || rx < tx {
		return e, errors.Errorf("malformed stat line: %q", line)
	}

	id, err := strconv.Atoi(line[len("LI:"):tm])
	if err != nil {
		return e, errors.Wrap(err, "link id")
	}
	txv, err := strconv.ParseUint(line[tx+len("-TX:"):rx], 10, 64)
	if err != nil {
		return e, errors.Wrap(err, "tx")
	}
	rxv, err := strconv.ParseUint(line[rx+len("-RX:"):], 10, 64)
	if err != nil {
		return e, errors.Wrap(err, "rx")
	}

	e.LinkID = id
	e.Timestamp = line[tm+len("-TM:") : tx]
	e.TxBytes = txv
	e.RxBytes = rxv
	return e, nil
}
