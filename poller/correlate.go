package poller

import (
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
	"github.com/back2basic/linkcollector/registry"
)

// Correlator writes the entries of a reply into the links of its prefix.
type Correlator struct {
	reg     *registry.Registry
	scale   uint64
	verbose bool
	logger  *zap.Logger
}

func NewCorrelator(reg *registry.Registry, unit model.CounterUnit, verbose bool, logger *zap.Logger) *Correlator {
	return &Correlator{
		reg:     reg,
		scale:   unit.Scale(),
		verbose: verbose,
		logger:  logging.OrNop(logger),
	}
}

// Apply matches every reply entry to the link with the same address under
// prefix and overwrites its statistics. When several links share an address
// the last one in load order receives the update; later entries overwrite
// earlier ones. No timestamp comparison is done.
//
// It returns the number of entries that matched a link, or
// registry.ErrPrefixNotFound without touching anything.
func (c *Correlator) Apply(prefix string, reply model.Reply) (int, error) {
	links, err := c.reg.LinksFor(prefix)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, e := range reply.Links {
		var target *model.Link
		for _, l := range links {
			if l.Address == e.Address {
				target = l
			}
		}
		if target == nil {
			if c.verbose {
				c.logger.Debug("no link for reply entry",
					zap.String("prefix", prefix),
					zap.String("address", e.Address),
				)
			}
			continue
		}

		target.Stats.Set(e.TxBytes*c.scale, e.RxBytes*c.scale, e.Timestamp)
		matched++
		if c.verbose {
			c.logger.Debug("link updated",
				zap.String("prefix", prefix),
				zap.Int("link_id", target.ID),
				zap.Stringer("stats", target.Stats),
			)
		}
	}
	return matched, nil
}
