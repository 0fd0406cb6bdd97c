package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

const DefaultBucket = "intake_drafts"

// KVCache keeps drafts in a NATS JetStream key-value bucket.
type KVCache struct {
	kv jetstream.KeyValue
}

// NewKVCache creates the bucket when it does not exist yet.
func NewKVCache(ctx context.Context, js jetstream.JetStream, bucket string) (*KVCache, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "in-progress intake wizard drafts",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("creating draft bucket %s: %w", bucket, err)
	}
	return &KVCache{kv: kv}, nil
}

// kvKey maps a slot key to a valid NATS key; ':' is not allowed there.
func kvKey(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func (c *KVCache) Set(ctx context.Context, key string, val []byte) error {
	_, err := c.kv.Put(ctx, kvKey(key), val)
	return err
}

func (c *KVCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value(), true, nil
}

func (c *KVCache) Del(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (c *KVCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.Get(ctx, key)
	return ok, err
}

var _ Cache = (*KVCache)(nil)
