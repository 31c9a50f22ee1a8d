// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package binpack

// Operation contexts thread per-pass state through one serialize,
// deserialize, or clone call: the active registry reference, the buffer for
// wire operations, and identity/graph bookkeeping. Contexts are cheap to
// construct; a default-constructed context shares no state with any other
// instance. That property is load-bearing: releasing tail elements during
// target reuse happens in a freshly built context so the bookkeeping of the
// in-flight main operation is never touched.

// preparedTarget records one prepare_* call awaiting its matching fill
// phase. Records form a stack so nested collections compose.
type preparedTarget struct {
	target any
	size   int
}

// ============================================================================
// WriteContext - Holds all state needed during serialization
// ============================================================================

// WriteContext holds all state needed during one serialization pass.
// Serialization walks the source value as given and needs no identity
// bookkeeping of its own; the write context is just the buffer and the
// registry reference.
type WriteContext struct {
	buffer   *ByteBuffer
	registry *Registry
}

// NewWriteContext creates a write context bound to a registry.
func NewWriteContext(r *Registry) *WriteContext {
	return &WriteContext{
		buffer:   NewByteBuffer(nil),
		registry: r,
	}
}

// Reset clears state for reuse (called before each Marshal).
func (c *WriteContext) Reset() {
	c.buffer.Reset()
}

// Buffer returns the underlying buffer.
func (c *WriteContext) Buffer() *ByteBuffer { return c.buffer }

// Registry returns the handler registry driving this pass.
func (c *WriteContext) Registry() *Registry { return c.registry }

// ============================================================================
// ReadContext - Holds all state needed during deserialization
// ============================================================================

// ReadContext holds all state needed during one deserialization pass.
type ReadContext struct {
	buffer   *ByteBuffer
	registry *Registry
	trackRef bool
	refs     []any // targets shaped during this pass, in prepare order
	prepared []preparedTarget
}

// NewReadContext creates a read context bound to a registry.
func NewReadContext(r *Registry) *ReadContext {
	return &ReadContext{
		buffer:   NewByteBuffer(nil),
		registry: r,
		trackRef: r.trackRefs,
	}
}

// Reset clears state for reuse (called before each Unmarshal).
func (c *ReadContext) Reset() {
	c.refs = c.refs[:0]
	c.prepared = c.prepared[:0]
}

// SetData points the context at new input data.
func (c *ReadContext) SetData(data []byte) {
	c.buffer = NewByteBuffer(data)
}

// Buffer returns the underlying buffer.
func (c *ReadContext) Buffer() *ByteBuffer { return c.buffer }

// Registry returns the handler registry driving this pass.
func (c *ReadContext) Registry() *Registry { return c.registry }

// TrackRefs returns whether identity tracking is enabled.
func (c *ReadContext) TrackRefs() bool { return c.trackRef }

// Reference records a target shaped during this pass for identity
// bookkeeping.
func (c *ReadContext) Reference(v any) {
	if c.trackRef {
		c.refs = append(c.refs, v)
	}
}

// RefCount returns the number of identities recorded this pass.
func (c *ReadContext) RefCount() int { return len(c.refs) }

func (c *ReadContext) pushPrepared(target any, size int) {
	c.prepared = append(c.prepared, preparedTarget{target: target, size: size})
}

// popPrepared pops the innermost prepare record if it matches target and
// size. A mismatch leaves the stack untouched and reports failure.
func (c *ReadContext) popPrepared(target any, size int) bool {
	n := len(c.prepared)
	if n == 0 {
		return false
	}
	rec := c.prepared[n-1]
	if rec.target != target || rec.size != size {
		return false
	}
	c.prepared = c.prepared[:n-1]
	return true
}

// ============================================================================
// CloneContext - Holds all state needed during cloning and clearing
// ============================================================================

// CloneContext holds all state needed during one clone pass. It is also the
// context variant handed to Clear: clearing needs no buffer, only the
// registry reference and graph bookkeeping.
type CloneContext struct {
	registry *Registry
	trackRef bool
	seen     map[any]any // source identity -> cloned counterpart
	prepared []preparedTarget
}

// NewCloneContext creates a clone context bound to a registry. The result
// shares no state with any other context; the target-reuse routine relies on
// this when it builds a throwaway context for clearing released slots.
func NewCloneContext(r *Registry) *CloneContext {
	return &CloneContext{registry: r, trackRef: r.trackRefs}
}

// Reset clears state for reuse.
func (c *CloneContext) Reset() {
	c.seen = nil
	c.prepared = c.prepared[:0]
}

// Registry returns the handler registry driving this pass.
func (c *CloneContext) Registry() *Registry { return c.registry }

// TrackRefs returns whether identity tracking is enabled.
func (c *CloneContext) TrackRefs() bool { return c.trackRef }

// Remember records that src was cloned into dst during this pass.
func (c *CloneContext) Remember(src, dst any) {
	if !c.trackRef {
		return
	}
	if c.seen == nil {
		c.seen = make(map[any]any)
	}
	c.seen[src] = dst
}

// Remembered returns the clone recorded for src, if any.
func (c *CloneContext) Remembered(src any) (any, bool) {
	dst, ok := c.seen[src]
	return dst, ok
}

// RefCount returns the number of clone pairs recorded this pass.
func (c *CloneContext) RefCount() int { return len(c.seen) }

func (c *CloneContext) pushPrepared(target any, size int) {
	c.prepared = append(c.prepared, preparedTarget{target: target, size: size})
}

func (c *CloneContext) popPrepared(target any, size int) bool {
	n := len(c.prepared)
	if n == 0 {
		return false
	}
	rec := c.prepared[n-1]
	if rec.target != target || rec.size != size {
		return false
	}
	c.prepared = c.prepared[:n-1]
	return true
}
