package aos

import "context"

// BucketLister is the external bucket-listing collaborator.
type BucketLister interface {
	// ListBuckets returns all bucket names, optionally filtered by a name
	// prefix (empty means no filter).
	ListBuckets(ctx context.Context, prefix string) ([]string, error)

	// ListObjects streams every object of one bucket into fn, in listing
	// order. Entry keys are the listing service's attribute names; the
	// snapshot writer renames them through KeyMap.
	ListObjects(ctx context.Context, bucket string, fn func(entry map[string]any) error) error
}
