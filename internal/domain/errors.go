package domain

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("file or folder not found")
	ErrCorruptArchive   = errors.New("corrupt zip archive")
	ErrUpload           = errors.New("upload rejected by storage backend")
	ErrBackend          = errors.New("storage backend call failed")
	ErrRetentionExpired = errors.New("retention window expired")
)
