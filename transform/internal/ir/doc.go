// Package ir holds the raw instruction records produced by the transformer
// and the frame stack that buffers them while a lexical region is walked.
//
// # Frames
//
// Each region (top level, if branch, loop part, function body) owns one
// frame: an instruction buffer plus a pending tail of synchronous
// instructions. Suspending instructions are emitted straight into the
// buffer after flushing the tail; synchronous ones are deferred into the
// tail. Popping a frame flushes its tail, so instruction order always
// matches emission order.
package ir
