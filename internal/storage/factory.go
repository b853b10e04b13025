package storage

// NewStorage creates an ObjectStorage instance based on the configured
// type: "memory" for the in-process store, anything else is treated as
// S3-compatible.
func NewStorage(storageType string, cfg *S3Config) (ObjectStorage, error) {
	if storageType == "memory" {
		return NewMemoryStorage(), nil
	}
	return NewS3Storage(cfg)
}
