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
	"iter"
)

// CollectionHandler serializes, deserializes, clones and clears a
// homogeneous ordered collection of T, reusing caller-supplied backing
// storage whenever it is long enough.
//
// The wire encoding is a 4-byte signed element count followed by the
// elements in iteration order, each encoded by the element handler, with no
// padding or separators.
//
// Deserialization and cloning are split into two phases. PrepareDeserialize
// and PrepareClone shape the target to the exact element count; Deserialize
// and Clone then fill the prepared slots index-by-index. The one-shot
// Handler interface methods compose both phases, which is what lets
// collections nest as elements of other collections. Calling a fill phase
// without its matching prepare phase fails with ErrUnpreparedTarget.
//
// One instance exists per element type per process. The element handler is
// resolved once during InitSchema and cached; after that the handler is
// immutable and safe for concurrent use on distinct collection instances.
type CollectionHandler[T any] struct {
	elem        Handler[T]
	elemName    string
	storageType string
	schema      *Schema
}

func newCollectionHandler[T any]() *CollectionHandler[T] {
	return &CollectionHandler[T]{}
}

// TypeName returns the collection's storage type name. Valid once InitSchema
// has run.
func (h *CollectionHandler[T]) TypeName() string { return h.storageType }

// ClearRequired mirrors the element handler: a collection only needs
// clearing when its elements do.
func (h *CollectionHandler[T]) ClearRequired() ClearMode {
	if h.elem != nil && h.elem.ClearRequired() == ClearNotRequired {
		return ClearNotRequired
	}
	return ClearRequired
}

// Schema returns the schema built by InitSchema.
func (h *CollectionHandler[T]) Schema() *Schema { return h.schema }

// InitSchema resolves the element handler through the registry (registering
// the element schema as a side effect, if it was not yet known) and builds
// this collection's schema: contract name and id derived from the declared
// storage type and the registry's runtime version, one synthetic "Elements"
// member, format version 2.
//
// Passing a non-nil existing schema returns it verbatim, and a schema the
// registry already holds for the same contract name is reused instead of
// rebuilt. Schema identity belongs to the registry, not to this handler.
func (h *CollectionHandler[T]) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	// Element resolution happens on every initialization path, including the
	// existing-schema one: the handler is unusable without its element
	// handler, and resolving it registers the element schema.
	if h.elem == nil {
		elem, err := GetHandler[T](r)
		if err != nil {
			return nil, err
		}
		h.elem = elem
		h.elemName = elem.TypeName()
		h.storageType = "array<" + h.elemName + ">"
	}
	if existing != nil {
		h.schema = existing
		return existing, nil
	}
	name := r.Schemas().ContractName(h.storageType, r.RuntimeVersion())
	if s, ok := r.Schemas().Lookup(name); ok {
		h.schema = s
		return s, nil
	}
	s := &Schema{
		Name:         name,
		ID:           r.Schemas().SchemaID(name),
		StorageType:  h.storageType,
		IsCollection: true,
		Members: []Member{
			{Name: "Elements", TypeName: h.elemName, IsCollection: true},
		},
		FormatVersion: CollectionSchemaVersion,
	}
	s = r.Schemas().Register(s)
	h.schema = s
	return s, nil
}

// ============================================================================
// Serialize
// ============================================================================

// Serialize writes the element count as a 4-byte signed integer, then each
// element in order through the element handler.
func (h *CollectionHandler[T]) Serialize(ctx *WriteContext, value []T) error {
	ctx.Buffer().WriteInt32(int32(len(value)))
	for i := range value {
		if err := h.elem.Serialize(ctx, value[i]); err != nil {
			return err
		}
	}
	return nil
}

// SerializeSeq writes a collection drawn from a lazy sequence. The count is
// obtained by traversing seq fully, so seq must terminate.
func (h *CollectionHandler[T]) SerializeSeq(ctx *WriteContext, seq iter.Seq[T]) error {
	var scratch []T
	for v := range seq {
		scratch = append(scratch, v)
	}
	return h.Serialize(ctx, scratch)
}

// ============================================================================
// Deserialize
// ============================================================================

// PrepareDeserialize reads the 4-byte element count from the wire and shapes
// target to exactly that length, reusing the existing backing storage when
// it is long enough. Negative counts and counts above the registry bound
// fail with ErrMalformedLength before anything is allocated.
func (h *CollectionHandler[T]) PrepareDeserialize(ctx *ReadContext, target *[]T) error {
	n, err := ctx.Buffer().ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 || int(n) > ctx.Registry().MaxCollectionLength() {
		return fmt.Errorf("%w: element count %d", ErrMalformedLength, n)
	}
	if err := h.shapeTarget(ctx.Registry(), target, int(n)); err != nil {
		return err
	}
	ctx.Reference(target)
	ctx.pushPrepared(target, int(n))
	return nil
}

// DeserializeElements fills every prepared slot in ascending index order by
// deserializing one element in place through the element handler. The target
// must have been shaped by PrepareDeserialize on the same context; no
// resizing happens here. A failed element leaves the remaining slots in an
// undefined state and the caller must re-prepare before reusing the target.
func (h *CollectionHandler[T]) DeserializeElements(ctx *ReadContext, target *[]T) error {
	if !ctx.popPrepared(target, len(*target)) {
		return fmt.Errorf("%w: deserialize before matching prepare", ErrUnpreparedTarget)
	}
	s := *target
	for i := range s {
		if err := h.elem.Deserialize(ctx, &s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize runs both phases: shape the target from the wire-declared
// count, then fill it.
func (h *CollectionHandler[T]) Deserialize(ctx *ReadContext, target *[]T) error {
	if err := h.PrepareDeserialize(ctx, target); err != nil {
		return err
	}
	return h.DeserializeElements(ctx, target)
}

// DeserializeAny deserializes into a collection held in an any slot. A nil
// slot or a []T provide reusable storage; any other shape offers no reusable
// capacity and non-collection shapes fail with ErrTargetShape.
func (h *CollectionHandler[T]) DeserializeAny(ctx *ReadContext, target *any) error {
	s, err := h.coerceTarget(*target)
	if err != nil {
		return err
	}
	if err := h.Deserialize(ctx, &s); err != nil {
		return err
	}
	*target = s
	return nil
}

// ============================================================================
// Clone
// ============================================================================

// PrepareClone shapes target to the source's element count, reusing existing
// backing storage when it is long enough.
func (h *CollectionHandler[T]) PrepareClone(ctx *CloneContext, src []T, target *[]T) error {
	if err := h.shapeTarget(ctx.Registry(), target, len(src)); err != nil {
		return err
	}
	ctx.pushPrepared(target, len(src))
	return nil
}

// CloneElements walks source and target in lockstep, cloning each element
// into its prepared slot through the element handler. The target must have
// been shaped by PrepareClone on the same context; no resizing happens here.
func (h *CollectionHandler[T]) CloneElements(ctx *CloneContext, src []T, target *[]T) error {
	if !ctx.popPrepared(target, len(src)) {
		return fmt.Errorf("%w: clone before matching prepare", ErrUnpreparedTarget)
	}
	s := *target
	if len(s) != len(src) {
		return fmt.Errorf("%w: prepared length %d does not match source length %d",
			ErrUnpreparedTarget, len(s), len(src))
	}
	for i := range src {
		if err := h.elem.Clone(ctx, src[i], &s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clone runs both phases: shape the target to the source count, then clone
// element-wise.
func (h *CollectionHandler[T]) Clone(ctx *CloneContext, src []T, target *[]T) error {
	if err := h.PrepareClone(ctx, src, target); err != nil {
		return err
	}
	return h.CloneElements(ctx, src, target)
}

// CloneAny clones into a collection held in an any slot, with the same
// shape rules as DeserializeAny.
func (h *CollectionHandler[T]) CloneAny(ctx *CloneContext, src []T, target *any) error {
	s, err := h.coerceTarget(*target)
	if err != nil {
		return err
	}
	if err := h.Clone(ctx, src, &s); err != nil {
		return err
	}
	*target = s
	return nil
}

// ============================================================================
// Clear
// ============================================================================

// Clear releases every element of target in place through the element
// handler, using the caller-supplied context. Unlike the internal clearing
// done while reshaping a target, the value here is being discarded as a
// whole, so the ambient context is the right one.
func (h *CollectionHandler[T]) Clear(ctx *CloneContext, target *[]T) error {
	if target == nil {
		return nil
	}
	s := *target
	for i := range s {
		if err := h.elem.Clear(ctx, &s[i]); err != nil {
			return err
		}
	}
	return nil
}

// ClearAny clears a collection held in an any slot. A lazy sequence is first
// materialized into a concrete slice (this allocates); the slot is left
// pointing at the cleared slice.
func (h *CollectionHandler[T]) ClearAny(ctx *CloneContext, target *any) error {
	switch v := (*target).(type) {
	case nil:
		return nil
	case []T:
		if err := h.Clear(ctx, &v); err != nil {
			return err
		}
		*target = v
	case iter.Seq[T]:
		var s []T
		for e := range v {
			s = append(s, e)
		}
		if err := h.Clear(ctx, &s); err != nil {
			return err
		}
		*target = s
	default:
		return fmt.Errorf("%w: cannot clear %T as %s", ErrTargetShape, *target, h.storageType)
	}
	return nil
}

// ============================================================================
// Target reuse
// ============================================================================

// shapeTarget is the shared reuse/resize routine behind PrepareDeserialize
// and PrepareClone. It resizes *target to exactly size elements, preserving
// existing elements below size. When shrinking, the released tail slots are
// cleared first (unless the element handler declares clearing unnecessary)
// in a freshly constructed context bound to the same registry: the released
// elements leave the collection here, and their cleanup must never touch the
// identity bookkeeping of the operation in flight.
func (h *CollectionHandler[T]) shapeTarget(reg *Registry, target *[]T, size int) error {
	cur := *target
	if cur == nil {
		*target = make([]T, size)
		return nil
	}
	if len(cur) > size && h.elem.ClearRequired().Needed() {
		clearCtx := NewCloneContext(reg)
		for i := size; i < len(cur); i++ {
			if err := h.elem.Clear(clearCtx, &cur[i]); err != nil {
				return err
			}
		}
	}
	switch {
	case len(cur) >= size:
		*target = cur[:size]
	case cap(cur) >= size:
		grown := cur[:size]
		var zero T
		for i := len(cur); i < size; i++ {
			grown[i] = zero
		}
		*target = grown
	default:
		grown := make([]T, size)
		copy(grown, cur)
		*target = grown
	}
	return nil
}

// coerceTarget extracts reusable []T storage from an any slot. A lazy
// sequence is enumerable but not array-shaped, so it contributes zero
// reusable capacity; any other non-nil shape is rejected.
func (h *CollectionHandler[T]) coerceTarget(v any) ([]T, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []T:
		return t, nil
	case iter.Seq[T]:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: cannot reuse %T as %s", ErrTargetShape, v, h.storageType)
	}
}
