package testsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"lathe/internal/blob"
)

// MemoryBlobs is an in-memory blob.Store for unit tests.
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string

	// CopyFailKey makes Copy fail when asked to copy this source key,
	// simulating a partial promotion.
	CopyFailKey string
	ListErr     error
}

// NewMemoryBlobs creates an empty in-memory store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

func (m *MemoryBlobs) address(bucket, key string) string {
	return bucket + "\x00" + key
}

func (m *MemoryBlobs) Put(ctx context.Context, bucket, key string, body []byte, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := m.address(bucket, key)
	m.objects[addr] = append([]byte{}, body...)
	m.meta[addr] = cloneMeta(metadata)
	return nil
}

func (m *MemoryBlobs) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string) (*blob.Object, error) {
	if m.CopyFailKey != "" && srcKey == m.CopyFailKey {
		return nil, fmt.Errorf("copy %s: simulated failure", srcKey)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	body, exists := m.objects[m.address(srcBucket, srcKey)]
	if !exists {
		return nil, fmt.Errorf("copy %s: source not found", srcKey)
	}
	addr := m.address(dstBucket, dstKey)
	m.objects[addr] = append([]byte{}, body...)
	m.meta[addr] = cloneMeta(metadata)
	return &blob.Object{Key: dstKey, Size: int64(len(body)), Metadata: cloneMeta(metadata)}, nil
}

func (m *MemoryBlobs) List(ctx context.Context, bucket, prefix string) ([]blob.Object, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var objects []blob.Object
	for addr, body := range m.objects {
		parts := strings.SplitN(addr, "\x00", 2)
		if parts[0] != bucket || !strings.HasPrefix(parts[1], prefix) {
			continue
		}
		objects = append(objects, blob.Object{Key: parts[1], Size: int64(len(body))})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *MemoryBlobs) Head(ctx context.Context, bucket, key string) (*blob.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := m.address(bucket, key)
	body, exists := m.objects[addr]
	if !exists {
		return nil, nil
	}
	return &blob.Object{Key: key, Size: int64(len(body)), Metadata: cloneMeta(m.meta[addr])}, nil
}

func (m *MemoryBlobs) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := m.address(bucket, key)
	delete(m.objects, addr)
	delete(m.meta, addr)
	return nil
}

// Metadata returns the stored metadata for an object, or nil.
func (m *MemoryBlobs) Metadata(bucket, key string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMeta(m.meta[m.address(bucket, key)])
}

func cloneMeta(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]string, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}
