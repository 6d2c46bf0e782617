package media

import "errors"

// ErrSplitFailed indicates FFmpeg failed while exporting chunks.
var ErrSplitFailed = errors.New("media splitting failed")
