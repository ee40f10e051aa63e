// Package storage provides the filesystem abstraction used to archive
// generated fulfillment codes before they are mailed out.
//
// Two drivers are available:
//   - "local" — local filesystem (default)
//   - "s3"    — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
package storage

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(path string, content []byte) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error
}

// Connect builds the configured default disk: "s3" when a bucket is set and
// STORAGE_DISK asks for it, the local filesystem otherwise.
func Connect() (Disk, error) {
	if defaultName() == "s3" {
		return newS3Disk()
	}
	return newLocalDisk(), nil
}
