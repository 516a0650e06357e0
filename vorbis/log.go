package vorbis

import (
	"log"
	"os"
)

// logger is the package-wide diagnostic sink, matching the teacher's plain
// log.Logger-to-stderr convention rather than a structured logging
// framework (none appears anywhere in the example pack).
var logger = log.New(os.Stderr, "optivorbis: ", log.LstdFlags)
