package common

import "github.com/pkg/errors"

var (
	// ErrBufferPoolExhausted is returned when every frame is pinned. Release
	// some page handles and retry.
	ErrBufferPoolExhausted = errors.New("buffer pool exhausted: all frames are pinned")
)
