package registry

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
)

// ErrShortFile means the link file ended before the declared number of lines.
var ErrShortFile = errors.New("link file has fewer lines than declared")

// LoadFile reads count link lines from path into a new registry.
func LoadFile(path string, count int, logger *zap.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open link file")
	}
	defer f.Close()

	reg := New()
	if err := Read(reg, f, count, logger); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return reg, nil
}

// Read parses up to count lines of the form
//
//	<linkId> <prefix> <address> <label>
//
// into reg. A malformed line or a repeated link id is logged and skipped.
// Running out of input before count lines is an error.
func Read(reg *Registry, r io.Reader, count int, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	sc := bufio.NewScanner(r)

	lineNo := 0
	for read := 0; read < count; read++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return errors.Wrapf(ErrShortFile, "declared %d, found %d", count, read)
		}
		lineNo++

		id, prefix, addr, err := parseLine(sc.Text())
		if err != nil {
			logger.Warn("skipping link line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if reg.HasID(id) {
			logger.Warn("skipping duplicate link id", zap.Int("line", lineNo), zap.Int("link_id", id))
			continue
		}
		reg.Load(prefix, id, addr)
		logger.Debug("loaded link",
			zap.String("prefix", prefix),
			zap.Int("link_id", id),
			zap.String("address", addr),
		)
	}
	return nil
}

func parseLine(line string) (int, string, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return 0, "", "", errors.Errorf("want 4 fields, got %d", len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", "", errors.Wrap(err, "link id")
	}
	return id, fields[1], fields[2], nil
}
