package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("storage: object not found")

// Store reads and writes whole objects by key.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Location is a parsed object address: s3://bucket/key or a filesystem path.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) IsS3() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}

func ParseLocation(raw string) (Location, error) {
	rest, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		if raw == "" {
			return Location{}, fmt.Errorf("storage: empty location")
		}
		return Location{Key: raw}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("storage: missing bucket in %q", raw)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Options configures S3 access.
type Options struct {
	Region   string
	Endpoint string
}

// Open returns the store that serves loc, with keys relative to it.
func Open(ctx context.Context, loc Location, opts Options) (Store, error) {
	if loc.IsS3() {
		return NewS3Store(ctx, loc.Bucket, opts)
	}
	return NewLocalStore(""), nil
}

// Read fetches the object at a location string.
func Read(ctx context.Context, raw string, opts Options) ([]byte, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	store, err := Open(ctx, loc, opts)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, loc.Key)
}

// Write stores data at a location string.
func Write(ctx context.Context, raw string, data []byte, opts Options) error {
	loc, err := ParseLocation(raw)
	if err != nil {
		return err
	}
	store, err := Open(ctx, loc, opts)
	if err != nil {
		return err
	}
	return store.Put(ctx, loc.Key, data)
}
