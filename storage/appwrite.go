package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/tablesdb"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
)

// Resolver maps a peer address to a host name, "" when unknown.
type Resolver interface {
	Resolve(address string) string
}

type upsertFunc func(rowID string, data map[string]interface{}) error

// Appwrite mirrors the latest sample of every link into an Appwrite table.
type Appwrite struct {
	hostname string
	upsert   upsertFunc
	resolver Resolver
	logger   *zap.Logger
}

// NewAppwriteFromEnv builds the sink from APPWRITE_* variables.
// It returns nil when any of them is missing.
func NewAppwriteFromEnv(resolver Resolver, logger *zap.Logger) *Appwrite {
	logger = logging.OrNop(logger)

	endpoint := os.Getenv("APPWRITE_ENDPOINT")
	project := os.Getenv("APPWRITE_PROJECT")
	apiKey := os.Getenv("APPWRITE_API_KEY")
	dbID := os.Getenv("APPWRITE_DATABASE")
	tableID := os.Getenv("APPWRITE_TABLE")

	if endpoint == "" || project == "" || apiKey == "" || dbID == "" || tableID == "" {
		logger.Info("appwrite: missing environment variables, appwrite export disabled")
		return nil
	}

	client := appwrite.NewClient(
		appwrite.WithEndpoint(endpoint),
		appwrite.WithProject(project),
		appwrite.WithKey(apiKey),
	)
	db := tablesdb.New(client)

	hostname, err := os.Hostname()
	if err != nil {
		logger.Warn("appwrite: get hostname", zap.Error(err))
	}

	return newAppwrite(hostname, func(rowID string, data map[string]interface{}) error {
		_, err := db.UpsertRow(dbID, tableID, rowID, db.WithUpsertRowData(data))
		return err
	}, resolver, logger)
}

func newAppwrite(hostname string, upsert upsertFunc, resolver Resolver, logger *zap.Logger) *Appwrite {
	return &Appwrite{
		hostname: hostname,
		upsert:   upsert,
		resolver: resolver,
		logger:   logging.OrNop(logger),
	}
}

func (a *Appwrite) Name() string { return "appwrite" }

func makeRowID(hostname string, linkID int) string {
	h := sha1.New()
	h.Write([]byte(hostname))
	h.Write([]byte(strconv.Itoa(linkID)))
	sum := hex.EncodeToString(h.Sum(nil))
	return sum[:32] // Appwrite ids are capped at 36 chars
}

// Push upserts one row per updated link. Individual row failures are
// logged; the first one is returned after all rows were attempted.
func (a *Appwrite) Push(ctx context.Context, links []model.LinkStat) error {
	var firstErr error
	pushed := 0
	for _, l := range links {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !l.Updated() {
			continue
		}

		dns := ""
		if a.resolver != nil {
			dns = a.resolver.Resolve(l.Address)
		}
		data := map[string]interface{}{
			"hostname":  a.hostname,
			"link_id":   l.ID,
			"prefix":    l.Prefix,
			"address":   l.Address,
			"dns":       dns,
			"timestamp": l.Timestamp,
			"tx_bytes":  l.TxBytes,
			"rx_bytes":  l.RxBytes,
		}

		rowID := makeRowID(a.hostname, l.ID)
		if err := a.upsert(rowID, data); err != nil {
			a.logger.Warn("appwrite: upsert failed", zap.String("row", rowID), zap.Error(err))
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "upsert link %d", l.ID)
			}
			continue
		}
		pushed++
	}

	a.logger.Debug("appwrite: pushed rows", zap.Int("rows", pushed))
	return firstErr
}
