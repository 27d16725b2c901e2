package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lathe/internal/services"
)

// metaDirName holds sidecar metadata files inside each bucket directory.
// List and prefix walks skip it.
const metaDirName = ".meta"

// FSStore implements Store on the local filesystem. Buckets are directories
// under the root; object keys map to relative paths. Metadata lives in JSON
// sidecars so local promotion runs can be inspected with plain ls and cat.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "fs", "root directory is required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "fs", "create root directory", err)
	}
	return &FSStore{root: dir}, nil
}

func (s *FSStore) Put(ctx context.Context, bucket, key string, body []byte, metadata map[string]string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrExternalCall, "blob", "put", "create object directory", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return services.Wrap(services.ErrExternalCall, "blob", "put", objectRef(bucket, key), err)
	}
	return s.writeMetadata(bucket, key, metadata)
}

func (s *FSStore) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string) (*Object, error) {
	srcPath, err := s.objectPath(srcBucket, srcKey)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "blob", "copy", objectRef(srcBucket, srcKey), err)
		}
		return nil, services.Wrap(services.ErrExternalCall, "blob", "copy", objectRef(srcBucket, srcKey), err)
	}
	if err := s.Put(ctx, dstBucket, dstKey, body, metadata); err != nil {
		return nil, err
	}
	return s.Head(ctx, dstBucket, dstKey)
}

func (s *FSStore) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	bucketDir := filepath.Join(s.root, bucket)
	if _, err := os.Stat(bucketDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var objects []Object
	err := filepath.WalkDir(bucketDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == metaDirName {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: key, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "blob", "list", objectRef(bucket, prefix), err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *FSStore) Head(ctx context.Context, bucket, key string) (*Object, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrExternalCall, "blob", "head", objectRef(bucket, key), err)
	}

	metadata, err := s.readMetadata(bucket, key)
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, Size: info.Size(), Metadata: metadata}, nil
}

func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrExternalCall, "blob", "delete", objectRef(bucket, key), err)
	}
	_ = os.Remove(s.metaPath(bucket, key))
	return nil
}

func (s *FSStore) objectPath(bucket, key string) (string, error) {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(key) == "" {
		return "", services.Wrap(services.ErrValidation, "blob", "fs", "bucket and key are required", nil)
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", services.Wrap(services.ErrValidation, "blob", "fs", fmt.Sprintf("invalid object key %q", key), nil)
	}
	return filepath.Join(s.root, bucket, cleaned), nil
}

func (s *FSStore) metaPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, metaDirName, filepath.FromSlash(key)+".json")
}

func (s *FSStore) writeMetadata(bucket, key string, metadata map[string]string) error {
	path := s.metaPath(bucket, key)
	if len(metadata) == 0 {
		_ = os.Remove(path)
		return nil
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrExternalCall, "blob", "put", "encode metadata", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrExternalCall, "blob", "put", "create metadata directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrExternalCall, "blob", "put", "write metadata", err)
	}
	return nil
}

func (s *FSStore) readMetadata(bucket, key string) (map[string]string, error) {
	data, err := os.ReadFile(s.metaPath(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrExternalCall, "blob", "head", "read metadata", err)
	}
	var metadata map[string]string
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "blob", "head", "decode metadata", err)
	}
	return metadata, nil
}
