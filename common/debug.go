package common

import "log"

// DebugLevel gates Debugf the way the teacher's engine gates its own trace
// output. No package in this module calls Debugf, so raising it prints
// nothing by itself.
var DebugLevel uint = 0

// Debugf prints a trace line when level is at or below the configured
// DebugLevel, mirroring goose-nfsd's util.DPrintf.
func Debugf(level uint, format string, args ...interface{}) {
	if level <= DebugLevel {
		log.Printf(format, args...)
	}
}
