package blob

import "context"

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	Metadata map[string]string
}

// Store is the object storage surface promotions run against. Buckets are
// addressed by name on every call so one store can serve both the staging
// and production sides of a copy.
type Store interface {
	// Put writes a blob with the given metadata.
	Put(ctx context.Context, bucket, key string, body []byte, metadata map[string]string) error
	// Copy duplicates a blob between buckets. The destination's metadata is
	// replaced wholesale with the supplied map.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string) (*Object, error)
	// List returns the objects under a key prefix.
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	// Head returns object details, or nil when the object does not exist.
	Head(ctx context.Context, bucket, key string) (*Object, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
