package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopsmart/backend/internal/domain"
)

// getJSON loads key into out. It returns domain.ErrCacheMiss when the key is absent.
func getJSON(ctx context.Context, store domain.KeyValueStore, key string, out interface{}) error {
	values, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	raw, ok := values[key]
	if !ok {
		return domain.ErrCacheMiss
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// setJSON replaces key with the JSON encoding of value
func setJSON(ctx context.Context, store domain.KeyValueStore, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, map[string][]byte{key: data})
}
