// ABOUTME: bbolt-backed catalog of ingested files and their lot summaries
// ABOUTME: Lets repeated ingests skip files that have not changed on disk

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/prateek/stdflens/analysis"
)

var (
	ErrNotFound       = errors.New("not found in catalog")
	ErrBucketNotFound = errors.New("bucket not found")
)

var (
	filesBucket = []byte("files")
	lotsBucket  = []byte("lots")
)

// FileEntry is the ingest history of one file.
type FileEntry struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"mod_time"`
	LotID        string    `json:"lot_id"`
	Records      int64     `json:"records"`
	DecodeErrors int64     `json:"decode_errors"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// LotEntry is the latest summary of a lot plus every file that fed it.
type LotEntry struct {
	Summary   analysis.LotSummary `json:"summary"`
	Files     []string            `json:"files"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Catalog wraps an open bbolt file.
type Catalog struct {
	db *bbolt.DB
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{filesBucket, lotsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising catalog %s: %w", path, err)
	}

	slog.Debug("[stdflens.catalog] opened", "path", path)
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// IsIngested reports whether path was recorded with the same size and
// modification time.
func (c *Catalog) IsIngested(path string, size int64, modTime time.Time) bool {
	var found bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		var e FileEntry
		ok, err := get(tx, filesBucket, path, &e)
		if err != nil || !ok {
			return err
		}
		found = e.Size == size && e.ModTime.Equal(modTime)
		return nil
	})
	if err != nil {
		slog.Warn("[stdflens.catalog] lookup failed", "path", path, "error", err)
		return false
	}
	return found
}

// Record stores the file entry and folds the summary into its lot, both in
// one transaction. A file without a lot id is stored but belongs to no lot.
func (c *Catalog) Record(entry FileEntry, summary analysis.LotSummary) error {
	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now()
	}
	entry.LotID = summary.LotID

	err := c.db.Update(func(tx *bbolt.Tx) error {
		var prev FileEntry
		hadFile, err := get(tx, filesBucket, entry.Path, &prev)
		if err != nil {
			return err
		}
		if err := put(tx, filesBucket, entry.Path, entry); err != nil {
			return err
		}

		if summary.LotID != "" {
			var le LotEntry
			if _, err := get(tx, lotsBucket, summary.LotID, &le); err != nil {
				return err
			}
			le.Summary = summary
			le.UpdatedAt = entry.IngestedAt
			if !slices.Contains(le.Files, entry.Path) {
				le.Files = append(le.Files, entry.Path)
				slices.Sort(le.Files)
			}
			if err := put(tx, lotsBucket, summary.LotID, le); err != nil {
				return err
			}
		}

		// the file used to belong to another lot
		if hadFile && prev.LotID != summary.LotID {
			return detach(tx, prev.LotID, entry.Path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording %s: %w", entry.Path, err)
	}

	slog.Debug("[stdflens.catalog] recorded",
		"path", entry.Path,
		"lot_id", summary.LotID,
		"records", entry.Records,
	)
	return nil
}

// Lot returns the stored entry for a lot id.
func (c *Catalog) Lot(id string) (LotEntry, error) {
	var le LotEntry
	err := c.db.View(func(tx *bbolt.Tx) error {
		ok, err := get(tx, lotsBucket, id, &le)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return LotEntry{}, fmt.Errorf("lot %q: %w", id, err)
	}
	return le, nil
}

// Lots returns every lot ordered by lot id.
func (c *Catalog) Lots() ([]LotEntry, error) {
	var out []LotEntry
	err := forEach(c.db, lotsBucket, func(v []byte) error {
		var le LotEntry
		if err := json.Unmarshal(v, &le); err != nil {
			return err
		}
		out = append(out, le)
		return nil
	})
	return out, err
}

// Files returns every ingested file ordered by path.
func (c *Catalog) Files() ([]FileEntry, error) {
	var out []FileEntry
	err := forEach(c.db, filesBucket, func(v []byte) error {
		var e FileEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func detach(tx *bbolt.Tx, lotID, path string) error {
	if lotID == "" {
		return nil
	}
	var le LotEntry
	ok, err := get(tx, lotsBucket, lotID, &le)
	if err != nil || !ok {
		return err
	}
	le.Files = slices.DeleteFunc(le.Files, func(p string) bool { return p == path })
	if len(le.Files) == 0 {
		return tx.Bucket(lotsBucket).Delete([]byte(lotID))
	}
	return put(tx, lotsBucket, lotID, le)
}

// bbolt iterates keys in byte order, which gives the sorted listings.
func forEach(db *bbolt.DB, bucket []byte, fn func(v []byte) error) error {
	return db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}

func get(tx *bbolt.Tx, bucket []byte, key string, v any) (bool, error) {
	b := tx.Bucket(bucket)
	if b == nil {
		return false, ErrBucketNotFound
	}
	data := b.Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func put(tx *bbolt.Tx, bucket []byte, key string, v any) error {
	b := tx.Bucket(bucket)
	if b == nil {
		return ErrBucketNotFound
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}
