package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrRemote           = errors.New("remote backend error")
	ErrDecode           = errors.New("decode remote response")
	ErrUnknownKind      = errors.New("unknown repository kind")
	ErrResetUnsupported = errors.New("reset not supported by repository")
	ErrNoBaseURL        = errors.New("remote repository requires a base URL")
	ErrDuplicate        = errors.New("submission already applied by backend")
)
