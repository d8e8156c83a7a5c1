package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"

	_ "github.com/mattn/go-sqlite3"
)

const linkStatsSchema = `
CREATE TABLE IF NOT EXISTS link_stats (
    link_id INTEGER PRIMARY KEY,
    prefix TEXT NOT NULL,
    address TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    tx_bytes INTEGER NOT NULL,
    rx_bytes INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLite keeps the latest sample of every link in a single table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite open")
	}
	if _, err := db.Exec(linkStatsSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite schema")
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

// Push upserts every link that has received at least one reply.
func (s *SQLite) Push(ctx context.Context, links []model.LinkStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO link_stats (
            link_id, prefix, address,
            timestamp, tx_bytes, rx_bytes,
            updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(link_id) DO UPDATE SET
            prefix = excluded.prefix,
            address = excluded.address,
            timestamp = excluded.timestamp,
            tx_bytes = excluded.tx_bytes,
            rx_bytes = excluded.rx_bytes,
            updated_at = excluded.updated_at
    `)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := s.now().Unix()
	for _, l := range links {
		if !l.Updated() {
			continue
		}
		_, err = stmt.ExecContext(ctx,
			l.ID, l.Prefix, l.Address,
			l.Timestamp, int64(l.TxBytes), int64(l.RxBytes),
			now,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Latest returns every stored row ordered by link id.
func (s *SQLite) Latest(ctx context.Context) ([]model.LinkStat, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT link_id, prefix, address, timestamp, tx_bytes, rx_bytes
        FROM link_stats
        ORDER BY link_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LinkStat
	for rows.Next() {
		var (
			r      model.LinkStat
			tx, rx int64
		)
		if err := rows.Scan(&r.ID, &r.Prefix, &r.Address, &r.Timestamp, &tx, &rx); err != nil {
			return nil, err
		}
		r.TxBytes = uint64(tx)
		r.RxBytes = uint64(rx)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
