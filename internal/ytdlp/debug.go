package ytdlp

import (
	"io"
	"log"
	"sync/atomic"
)

var debugLog atomic.Pointer[log.Logger]

func init() {
	SetDebugOutput(io.Discard)
}

// SetDebugOutput routes parser and builder debug lines to w. Pass io.Discard to silence them.
func SetDebugOutput(w io.Writer) {
	debugLog.Store(log.New(w, "[ytdlp] ", log.LstdFlags))
}

func debugf(format string, args ...any) {
	debugLog.Load().Printf(format, args...)
}

// warnf is used for dropped unsafe values; it always reaches the standard logger
func warnf(format string, args ...any) {
	log.Printf("[ytdlp] "+format, args...)
}
