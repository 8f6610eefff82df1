package domain

// BucketType classifies what a Bucket groups tasks by.
type BucketType string

const (
	BucketProject  BucketType = "project"
	BucketCategory BucketType = "category"
	BucketContext  BucketType = "context"
)

// Bucket is a named grouping used for allocation and filtering. Deleting a
// Bucket clears bucket_id on member tasks; it never deletes the tasks.
type Bucket struct {
	ID     int64                  `json:"id"`
	Name   string                 `json:"name"`
	Type   BucketType             `json:"type"`
	Config map[string]interface{} `json:"config,omitempty"`
}
