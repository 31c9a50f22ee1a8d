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
	"fmt"
	"reflect"
	"sync"
)

// Registry defaults.
const (
	// DefaultRuntimeVersion is the active wire-format version used when
	// computing contract names.
	DefaultRuntimeVersion int32 = 2

	// DefaultMaxCollectionLength bounds wire-declared element counts. A
	// decoded count above this fails with ErrMalformedLength before any
	// allocation happens.
	DefaultMaxCollectionLength = 1 << 28
)

// ============================================================================
// Registry - Resolves types to handlers
// ============================================================================

// Registry resolves a type to its handler and carries the process-wide
// serialization configuration: the active runtime version, the collection
// length bound and whether identity tracking is enabled. Read access is safe
// for concurrent use once registration is done.
type Registry struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]any

	schemas        *SchemaRegistry
	runtimeVersion int32
	maxCollection  int
	trackRefs      bool
}

// NewRegistry creates an empty registry with default configuration.
func NewRegistry() *Registry {
	return &Registry{
		handlers:       make(map[reflect.Type]any),
		schemas:        NewSchemaRegistry(),
		runtimeVersion: DefaultRuntimeVersion,
		maxCollection:  DefaultMaxCollectionLength,
		trackRefs:      true,
	}
}

// Schemas returns the schema registry.
func (r *Registry) Schemas() *SchemaRegistry { return r.schemas }

// RuntimeVersion returns the active wire-format version.
func (r *Registry) RuntimeVersion() int32 { return r.runtimeVersion }

// MaxCollectionLength returns the upper bound accepted for wire-declared
// element counts.
func (r *Registry) MaxCollectionLength() int { return r.maxCollection }

// load returns the handler stored for t, if any.
func (r *Registry) load(t reflect.Type) (any, bool) {
	r.mu.RLock()
	v, ok := r.handlers[t]
	r.mu.RUnlock()
	return v, ok
}

// storeIfAbsent stores h for t unless a handler is already bound; the bound
// handler is returned either way.
func (r *Registry) storeIfAbsent(t reflect.Type, h any) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.handlers[t]; ok {
		return existing, true
	}
	r.handlers[t] = h
	return h, false
}

// Register binds a handler to type T and initializes its schema. The schema
// registration side effect makes T resolvable as a collection element
// afterwards. Registering the same type twice keeps the first handler.
func Register[T any](r *Registry, h Handler[T]) error {
	t := reflect.TypeFor[T]()
	if _, loaded := r.storeIfAbsent(t, h); loaded {
		return nil
	}
	if _, err := h.InitSchema(r, nil); err != nil {
		return err
	}
	return nil
}

// GetHandler resolves the handler registered for type T. An unresolvable
// type fails with ErrSchema.
func GetHandler[T any](r *Registry) (Handler[T], error) {
	t := reflect.TypeFor[T]()
	v, ok := r.load(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchema, t.String())
	}
	h, ok := v.(Handler[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchema, t.String())
	}
	return h, nil
}

// RegisterCollection lazily constructs and registers the collection handler
// for []T over the element handler registered for T. The element type must
// resolve; otherwise registration fails with ErrSchema. Calling this more
// than once for the same T is harmless.
func RegisterCollection[T any](r *Registry) (*CollectionHandler[T], error) {
	t := reflect.TypeFor[[]T]()
	if v, ok := r.load(t); ok {
		if h, ok := v.(*CollectionHandler[T]); ok {
			return h, nil
		}
		return nil, fmt.Errorf("%w: %s already bound to a non-collection handler", ErrSchema, t.String())
	}
	h := newCollectionHandler[T]()
	if _, err := h.InitSchema(r, nil); err != nil {
		return nil, err
	}
	if v, loaded := r.storeIfAbsent(t, h); loaded {
		// Lost the race; the stored handler wins.
		if stored, ok := v.(*CollectionHandler[T]); ok {
			return stored, nil
		}
		return nil, fmt.Errorf("%w: %s already bound to a non-collection handler", ErrSchema, t.String())
	}
	return h, nil
}
