// internal/mapcache/store.go
//
// Store persists encoded CTX blobs to a local bbolt database, keyed by
// the same hash(domain||mapping_parameters) used for the in-memory
// cache (spec §4.7), grounded directly on TheSnook-polyester's
// storage.BBoltStorage (same bbolt.Open/CreateBucketIfNotExists shape
// and Put-on-write pattern), generalized from a single proto-resource
// bucket to this spec's CTX blob format and from its scheme-registry
// Storage interface (unneeded here: Cortex always knows statically
// whether bbolt/S3 are configured) down to a concrete struct.
package mapcache

import (
	"bytes"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/cortexlabs/cortex/internal/codec"
	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

var mapBucket = []byte("sitemaps")

// Store persists CTX blobs on disk and optionally mirrors every write
// to S3 via mirror.
type Store struct {
	db     *bbolt.DB
	mirror *S3Mirror // nil disables remote mirroring
}

// OpenStore opens (creating if necessary) a bbolt database at path for
// CTX persistence. mirror may be nil.
func OpenStore(path string, mirror *S3Mirror) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open mapcache store %q: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(mapBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mapcache bucket: %w", err)
	}
	return &Store{db: db, mirror: mirror}, nil
}

// Load reads and decodes the CTX blob for key, if present. It returns
// (nil, nil) on a clean miss. A decode failure is reported as
// *errors.Error{Kind: KindMapCorrupt} per spec §4.5's "a mismatch is a
// hard E_MAP_CORRUPT"; the caller treats that the same as a miss after
// logging, since a corrupt on-disk entry must never be served.
func (s *Store) Load(key string) (*sitegraph.SiteMap, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(mapBucket).Get([]byte(key))
		if v != nil {
			blob = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}

	m, err := codec.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, cerrors.New(cerrors.KindMapCorrupt, "persisted CTX blob failed validation", err)
	}
	return m, nil
}

// Save encodes m as a CTX blob and writes it under key, mirroring to S3
// afterward when a mirror is configured.
func (s *Store) Save(key string, m *sitegraph.SiteMap) error {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, m); err != nil {
		return fmt.Errorf("encode CTX blob: %w", err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(mapBucket).Put([]byte(key), buf.Bytes())
	}); err != nil {
		return err
	}

	if s.mirror != nil {
		s.mirror.put(key, buf.Bytes())
	}
	return nil
}

// Close releases the underlying bbolt database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
