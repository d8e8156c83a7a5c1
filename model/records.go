package model

import "strconv"

// UnsetTimestamp marks statistics that have never been updated by a reply.
const UnsetTimestamp = "0"

// Statistics is the latest sample reported for one link.
type Statistics struct {
	Timestamp string
	TxBytes   uint64
	RxBytes   uint64
}

func NewStatistics() Statistics {
	return Statistics{Timestamp: UnsetTimestamp}
}

// Set overwrites the sample unconditionally.
func (s *Statistics) Set(tx, rx uint64, timestamp string) {
	s.TxBytes = tx
	s.RxBytes = rx
	s.Timestamp = timestamp
}

func (s Statistics) String() string {
	return "TM:" + s.Timestamp +
		"-TX:" + strconv.FormatUint(s.TxBytes, 10) +
		"-RX:" + strconv.FormatUint(s.RxBytes, 10)
}

// Link is one monitored link under a prefix.
type Link struct {
	ID      int
	Prefix  string
	Address string
	Stats   Statistics
}

func NewLink(prefix string, id int, address string) *Link {
	return &Link{
		ID:      id,
		Prefix:  prefix,
		Address: address,
		Stats:   NewStatistics(),
	}
}

// LinkStat is a detached copy of a link handed to consumers outside the poll loop.
type LinkStat struct {
	ID        int
	Prefix    string
	Address   string
	Timestamp string
	TxBytes   uint64
	RxBytes   uint64
}

func (l *Link) Snapshot() LinkStat {
	return LinkStat{
		ID:        l.ID,
		Prefix:    l.Prefix,
		Address:   l.Address,
		Timestamp: l.Stats.Timestamp,
		TxBytes:   l.Stats.TxBytes,
		RxBytes:   l.Stats.RxBytes,
	}
}

// Line renders the store line: LI:<id>-TM:<timestamp>-TX:<tx>-RX:<rx>.
func (s LinkStat) Line() string {
	return "LI:" + strconv.Itoa(s.ID) + "-" + Statistics{
		Timestamp: s.Timestamp,
		TxBytes:   s.TxBytes,
		RxBytes:   s.RxBytes,
	}.String()
}

// Updated reports whether any reply has reached this link yet.
func (s LinkStat) Updated() bool {
	return s.Timestamp != UnsetTimestamp
}
