// Package backup writes compressed snapshots of every draft to a local
// directory or an S3-compatible bucket and reads them back.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/util"
	"github.com/debemdeboas/stylus/internal/util/compression"
)

const (
	keyTimeLayout = "20060102T150405Z"
	hashLength    = 12
)

var backupLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	backupLogger = l
}

// Sink stores and retrieves snapshot objects by key.
type Sink interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type Snapshot struct {
	CreatedAt time.Time     `json:"created_at"`
	Drafts    []draft.Draft `json:"drafts"`
}

type Exporter struct {
	store  draft.Store
	codec  compression.Compressor
	prefix string
	now    func() time.Time
}

func NewExporter(store draft.Store, codec compression.Compressor, prefix string) *Exporter {
	return &Exporter{
		store:  store,
		codec:  codec,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Key names a snapshot: <prefix>/drafts-<UTC time>-<hash of payload>.json<ext>.
func Key(prefix string, at time.Time, payload []byte, ext string) string {
	name := fmt.Sprintf("drafts-%s-%s.json%s", at.UTC().Format(keyTimeLayout), util.ShortHash(payload, hashLength), ext)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Export snapshots every draft into sink and returns the object key.
func (e *Exporter) Export(ctx context.Context, sink Sink) (string, error) {
	drafts, err := e.store.List(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to list drafts")
	}

	now := e.now()
	payload, err := json.Marshal(Snapshot{CreatedAt: now.UTC(), Drafts: drafts})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode snapshot")
	}

	packed, err := e.codec.Compress(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to compress snapshot")
	}

	key := Key(e.prefix, now, payload, e.codec.Extension())
	if err := sink.Put(ctx, key, packed); err != nil {
		return "", errors.Wrapf(err, "failed to store snapshot %s", key)
	}

	backupLogger.Info().
		Str("key", key).
		Int("drafts", len(drafts)).
		Int("bytes", len(packed)).
		Msg("Drafts exported")
	return key, nil
}

// Restore upserts every draft of the snapshot stored under key and returns
// how many were written. Drafts not in the snapshot are left alone. The codec
// follows the key's extension when it names one.
func (e *Exporter) Restore(ctx context.Context, sink Sink, key string) (int, error) {
	packed, err := sink.Get(ctx, key)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read snapshot %s", key)
	}

	codec, ok := compression.ForKey(key)
	if !ok {
		codec = e.codec
	}
	payload, err := codec.Decompress(packed)
	if err != nil {
		return 0, errors.Wrap(err, "failed to decompress snapshot")
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return 0, errors.Wrap(err, "failed to decode snapshot")
	}

	for i, d := range snap.Drafts {
		if err := e.store.Upsert(ctx, d); err != nil {
			return i, errors.Wrapf(err, "failed to restore draft %s", d.ID)
		}
	}

	backupLogger.Info().Str("key", key).Int("drafts", len(snap.Drafts)).Msg("Drafts restored")
	return len(snap.Drafts), nil
}
