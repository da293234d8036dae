package filestore

import "time"

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Bucket and Key locate the object.
	Bucket string
	Key    string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ContentType is the MIME type (e.g. "application/typescript").
	ContentType string

	// ETag is the object's entity tag / hash, as returned by the backend.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time
}

// PutOptions controls how an object is written.
type PutOptions struct {
	// Size is the content length, or -1 when unknown (forces a multipart upload).
	Size int64

	// ContentType defaults to "application/octet-stream".
	ContentType string

	// Metadata is stored as user metadata (x-amz-meta-*).
	Metadata map[string]string
}
