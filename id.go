package fileselect

import "sync/atomic"

// lastID is the id most recently handed to a [Model].
var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}
