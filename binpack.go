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

import (
	"errors"
)

// ============================================================================
// Errors
// ============================================================================

// ErrSchema indicates a type could not be resolved to a registered handler
var ErrSchema = errors.New("binpack: no handler registered for type")

// ErrMalformedLength indicates a negative or absurdly large wire-declared
// element count
var ErrMalformedLength = errors.New("binpack: malformed element count")

// ErrTargetShape indicates a non-nil target that is not array-shaped storage
var ErrTargetShape = errors.New("binpack: target has wrong shape")

// ErrUnpreparedTarget indicates a fill phase invoked without its matching
// prepare phase
var ErrUnpreparedTarget = errors.New("binpack: target not prepared")

// ErrMagicNumber indicates an invalid magic number in the data stream
var ErrMagicNumber = errors.New("binpack: invalid magic number")

// ErrVersion indicates data tagged with a wire-format version newer than
// this process supports
var ErrVersion = errors.New("binpack: unsupported wire-format version")

// Protocol constants
const (
	MagicNumber int16 = 0x4270

	// MaxRuntimeVersion is the largest runtime version the stream header can
	// carry; the header encodes the version in a single byte.
	MaxRuntimeVersion int32 = 255
)

// ============================================================================
// Config
// ============================================================================

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithRuntimeVersion sets the active wire-format version used in contract
// names and the stream header. The header stores the version in one byte, so
// values outside [0, MaxRuntimeVersion] are clamped to that range.
func WithRuntimeVersion(v int32) Option {
	return func(e *Engine) {
		if v < 0 {
			v = 0
		}
		if v > MaxRuntimeVersion {
			v = MaxRuntimeVersion
		}
		e.registry.runtimeVersion = v
	}
}

// WithMaxCollectionLength bounds wire-declared element counts. Streams
// declaring a larger count are rejected with ErrMalformedLength before any
// allocation.
func WithMaxCollectionLength(n int) Option {
	return func(e *Engine) { e.registry.maxCollection = n }
}

// WithTrackRefs enables or disables identity tracking in operation contexts.
func WithTrackRefs(enabled bool) Option {
	return func(e *Engine) { e.registry.trackRefs = enabled }
}

// WithSetup runs fn against the engine's registry after the builtin handlers
// are installed. Pooled engines apply it to every instance, which is how
// user-type handlers reach all members of a threadsafe pool.
func WithSetup(fn func(*Registry)) Option {
	return func(e *Engine) { e.setup = append(e.setup, fn) }
}

// ============================================================================
// Engine - Main serialization instance
// ============================================================================

// Engine is the main serialization instance. It owns a handler registry with
// scalar handlers and their collections pre-registered, plus reusable
// operation contexts so repeated calls do not reallocate.
//
// Engine is NOT safe for concurrent use; wrap it with the threadsafe
// package for that.
type Engine struct {
	registry *Registry
	setup    []func(*Registry)

	// Reusable contexts - avoid allocation on each call
	writeCtx *WriteContext
	readCtx  *ReadContext
	cloneCtx *CloneContext
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{registry: NewRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	registerBuiltins(e.registry)
	for _, fn := range e.setup {
		fn(e.registry)
	}

	e.writeCtx = NewWriteContext(e.registry)
	e.readCtx = NewReadContext(e.registry)
	e.cloneCtx = NewCloneContext(e.registry)
	return e
}

// registerBuiltins installs the scalar handlers and their collections.
// Errors are impossible here: every element type resolves by construction.
func registerBuiltins(r *Registry) {
	_ = Register[bool](r, boolHandler{})
	_ = Register[int32](r, int32Handler{})
	_ = Register[int64](r, int64Handler{})
	_ = Register[float64](r, float64Handler{})
	_ = Register[string](r, stringHandler{})
	_ = Register[[]byte](r, bytesHandler{})
	_, _ = RegisterCollection[bool](r)
	_, _ = RegisterCollection[int32](r)
	_, _ = RegisterCollection[int64](r)
	_, _ = RegisterCollection[float64](r)
	_, _ = RegisterCollection[string](r)
	_, _ = RegisterCollection[[]byte](r)
}

// Registry returns the engine's handler registry, for registering handlers
// of user types and collections of registered element types.
func (e *Engine) Registry() *Registry { return e.registry }

// Reset clears the reusable contexts.
func (e *Engine) Reset() {
	e.writeCtx.Reset()
	e.readCtx.Reset()
	e.cloneCtx.Reset()
}

// ============================================================================
// Generic API
// ============================================================================

// Marshal serializes a value of type T. The output starts with the stream
// header (magic number and runtime version) followed by the handler's wire
// encoding.
func Marshal[T any](e *Engine, value T) ([]byte, error) {
	h, err := GetHandler[T](e.registry)
	if err != nil {
		return nil, err
	}
	e.writeCtx.Reset()
	writeHeader(e.writeCtx, e.registry.runtimeVersion)
	if err := h.Serialize(e.writeCtx, value); err != nil {
		return nil, err
	}
	buf := e.writeCtx.Buffer()
	return buf.GetByteSlice(0, buf.WriterIndex()), nil
}

// Unmarshal deserializes data into a fresh value of type T.
func Unmarshal[T any](e *Engine, data []byte) (T, error) {
	var value T
	err := UnmarshalInto(e, data, &value)
	return value, err
}

// UnmarshalInto deserializes data into the provided target, reusing the
// target's nested storage where the handlers allow it. After a failed call
// the target's contents are undefined and must not be reused without
// re-deserializing.
func UnmarshalInto[T any](e *Engine, data []byte, target *T) error {
	h, err := GetHandler[T](e.registry)
	if err != nil {
		return err
	}
	e.readCtx.Reset()
	e.readCtx.SetData(data)
	if err := readHeader(e.readCtx, e.registry.runtimeVersion); err != nil {
		return err
	}
	return h.Deserialize(e.readCtx, target)
}

// CloneInto deep-copies src into target, reusing the target's nested
// storage where the handlers allow it.
func CloneInto[T any](e *Engine, src T, target *T) error {
	h, err := GetHandler[T](e.registry)
	if err != nil {
		return err
	}
	e.cloneCtx.Reset()
	return h.Clone(e.cloneCtx, src, target)
}

// ClearValue releases the nested resources of target and resets it to a
// reusable default state. Clearing runs in a fresh disposable context, so it
// never interferes with any in-flight operation on the engine.
func ClearValue[T any](e *Engine, target *T) error {
	h, err := GetHandler[T](e.registry)
	if err != nil {
		return err
	}
	return h.Clear(NewCloneContext(e.registry), target)
}

// ============================================================================
// Stream Header
// ============================================================================

// writeHeader writes the stream header: magic number plus the runtime
// wire-format version.
func writeHeader(ctx *WriteContext, version int32) {
	ctx.Buffer().WriteInt16(MagicNumber)
	ctx.Buffer().WriteByte_(byte(version))
}

// readHeader validates the stream header. Data tagged with a version newer
// than the active runtime version is rejected rather than misread.
func readHeader(ctx *ReadContext, version int32) error {
	magic, err := ctx.Buffer().ReadInt16()
	if err != nil {
		return err
	}
	if magic != MagicNumber {
		return ErrMagicNumber
	}
	v, err := ctx.Buffer().ReadByte_()
	if err != nil {
		return err
	}
	if int32(v) > version {
		return ErrVersion
	}
	return nil
}
