package tokenstore

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	rerrors "github.com/healthrepublic/republic/internal/errors"
)

const (
	bucketName = "session"
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"

	// OpenTimeout bounds the wait for another process's file lock.
	OpenTimeout = time.Second
)

// Bolt stores tokens in a bbolt database.
type Bolt struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, rerrors.NewTokenStoreError("open", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, rerrors.NewTokenStoreError("open", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, rerrors.NewTokenStoreError("open", err)
	}

	return &Bolt{db: db}, nil
}

// Path returns the database file path.
func (b *Bolt) Path() string {
	return b.db.Path()
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Load() (Tokens, error) {
	var t Tokens
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucketName))
		// Values are only valid inside the transaction.
		t.Access = string(bk.Get([]byte(keyAccess)))
		t.Refresh = string(bk.Get([]byte(keyRefresh)))
		return nil
	})
	if err != nil {
		return Tokens{}, rerrors.NewTokenStoreError("read", err)
	}
	return t, nil
}

func (b *Bolt) Save(t Tokens) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucketName))
		if err := put(bk, keyAccess, t.Access); err != nil {
			return err
		}
		return put(bk, keyRefresh, t.Refresh)
	})
	if err != nil {
		return rerrors.NewTokenStoreError("write", err)
	}
	return nil
}

func (b *Bolt) Clear() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucketName))
		if err := bk.Delete([]byte(keyAccess)); err != nil {
			return err
		}
		return bk.Delete([]byte(keyRefresh))
	})
	if err != nil {
		return rerrors.NewTokenStoreError("clear", err)
	}
	return nil
}

// put deletes the key for an empty value so Load reports it absent.
func put(bk *bolt.Bucket, key, value string) error {
	if value == "" {
		return bk.Delete([]byte(key))
	}
	return bk.Put([]byte(key), []byte(value))
}
