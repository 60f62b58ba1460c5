package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the site directory and brings the index up to date:
//   - new/changed posts are parsed and upserted
//   - posts removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	resolver := lint.NewCorpusResolver(store)
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, resolver, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePost(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB. Ref targets are
// recorded under the corpus path they resolve to, so backlinks and graph
// edges line up with indexed post paths.
func indexFile(db *DB, resolver *lint.CorpusResolver, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	refs := make([]RefRow, len(res.Refs))
	for i, r := range res.Refs {
		refs[i] = RefRow{Target: resolver.RefTarget(path, r.Target), Kind: string(r.Kind)}
	}

	row := PostRow{
		Path:      path,
		Title:     res.Title,
		Layout:    res.Layout,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		UpdatedAt: time.Now(),
	}
	return db.UpsertPost(row, res.Body, refs)
}
