package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crytic/manganis/assets"
	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
)

// StoreFileName is the name of the remote metadata database inside the cache directory.
const StoreFileName = "remote.db"

// storeBucket holds one entry per URL.
var storeBucket = []byte("remote")

// storedMetadata is the on-disk form of a metadata lookup.
type storedMetadata struct {
	ContentType  string `cbor:"1,keyasint,omitempty"`
	LastModified string `cbor:"2,keyasint,omitempty"`
	ETag         string `cbor:"3,keyasint,omitempty"`
	CheckedAt    int64  `cbor:"4,keyasint"`
}

var (
	storeEncMode cbor.EncMode
	storeDecMode cbor.DecMode
)

func init() {
	var err error
	storeEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("remote: CBOR encoder initialization failed: " + err.Error())
	}
	storeDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("remote: CBOR decoder initialization failed: " + err.Error())
	}
}

// Store persists remote metadata across runs, so that repeated builds do not hit the network for every remote asset.
// Entries older than the store's TTL are treated as absent.
type Store struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenStore opens (or creates) the metadata database in cacheDir. A zero ttl keeps entries forever.
func OpenStore(cacheDir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(cacheDir, StoreFileName), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open remote metadata store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(storeBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the stored metadata of rawURL. The bool is false when nothing usable is stored.
func (s *Store) Get(rawURL string) (assets.RemoteMetadata, bool, error) {
	var entry storedMetadata
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(storeBucket).Get([]byte(rawURL))
		if data == nil {
			return nil
		}
		found = true
		return storeDecMode.Unmarshal(data, &entry)
	})
	if err != nil {
		return assets.RemoteMetadata{}, false, fmt.Errorf("could not read metadata of %s: %w", rawURL, err)
	}
	if !found {
		return assets.RemoteMetadata{}, false, nil
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(entry.CheckedAt, 0)) > s.ttl {
		return assets.RemoteMetadata{}, false, nil
	}

	return assets.RemoteMetadata{
		ContentType:  entry.ContentType,
		LastModified: entry.LastModified,
		ETag:         entry.ETag,
	}, true, nil
}

// Put records the metadata of rawURL, stamped with the current time.
func (s *Store) Put(rawURL string, meta assets.RemoteMetadata) error {
	data, err := storeEncMode.Marshal(storedMetadata{
		ContentType:  meta.ContentType,
		LastModified: meta.LastModified,
		ETag:         meta.ETag,
		CheckedAt:    s.now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(storeBucket).Put([]byte(rawURL), data)
	})
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
