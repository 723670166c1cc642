package graph

import "github.com/pkg/errors"

// Errors returned by graph construction and rewriting.
var (
	ErrCycle          = errors.New("edge would create a cycle")
	ErrLiveEdges      = errors.New("node still has outgoing edges")
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrSlotOutOfRange = errors.New("output slot out of range")
	ErrBufferSize     = errors.New("buffer length does not match input shape")
)
