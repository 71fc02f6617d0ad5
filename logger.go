package astipsi

import "github.com/asticode/go-astikit"

// Decoders are pure functions, hence the package level logger. It only tells
// the developer when a section was clamped, skipped or rejected.
var logger = astikit.AdaptStdLogger(nil)

// SetLogger sets the package logger
func SetLogger(l astikit.StdLogger) { logger = astikit.AdaptStdLogger(l) }
