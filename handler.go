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

// ClearMode reports whether a handler's Clear operation does real work on
// values of its type. The zero value is ClearUnknown, which every consumer
// must treat exactly like ClearRequired.
type ClearMode int8

const (
	// ClearUnknown means the handler has not declared whether clearing is
	// needed. Treated conservatively as ClearRequired.
	ClearUnknown ClearMode = iota
	// ClearRequired means stale values of this type hold resources that
	// must be released through Clear before the slot is abandoned.
	ClearRequired
	// ClearNotRequired means Clear is a no-op for this type and may be
	// skipped when releasing slots.
	ClearNotRequired
)

// Needed reports whether clearing must be performed. Only an explicit
// ClearNotRequired opts out.
func (m ClearMode) Needed() bool { return m != ClearNotRequired }

// Handler is the unified per-type capability for the four coupled
// operations: wire serialization, wire deserialization into a reused target,
// in-process cloning into a reused target, and clearing a stale target.
//
// Handlers are singletons per type per process. They are resolved through a
// Registry, initialize their schema once, and hold no per-operation state;
// everything a single pass needs travels in the context argument.
type Handler[T any] interface {
	// TypeName returns the stable storage type name used when computing
	// contract names for this type and for collections of it.
	TypeName() string

	// InitSchema resolves whatever this handler depends on (for container
	// handlers, the element handler) and registers the type's schema with
	// the registry. Passing a non-nil existing schema makes the call
	// idempotent: that schema is returned verbatim and nothing is rebuilt.
	InitSchema(r *Registry, existing *Schema) (*Schema, error)

	// Serialize appends the wire encoding of value to the context buffer.
	Serialize(ctx *WriteContext, value T) error

	// Deserialize decodes one value from the context buffer into target,
	// reusing target's nested storage where possible.
	Deserialize(ctx *ReadContext, target *T) error

	// Clone deep-copies src into target, reusing target's nested storage
	// where possible. After Clone, mutating src must not affect target.
	Clone(ctx *CloneContext, src T, target *T) error

	// Clear releases nested resources held by target and resets it to a
	// reusable default state.
	Clear(ctx *CloneContext, target *T) error

	// ClearRequired reports whether Clear does real work for this type.
	ClearRequired() ClearMode
}
