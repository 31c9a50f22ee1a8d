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

// Package threadsafe provides a concurrency-safe wrapper around
// binpack.Engine using a sync.Pool of engine instances.
package threadsafe

import (
	"sync"

	"github.com/binpackio/binpack"
)

// Engine is a thread-safe wrapper around binpack.Engine. Each call borrows a
// pooled engine, so concurrent calls never share operation contexts.
type Engine struct {
	pool sync.Pool
}

// New creates a thread-safe engine. The options are applied to every pooled
// instance.
func New(opts ...binpack.Option) *Engine {
	e := &Engine{}
	e.pool = sync.Pool{
		New: func() any {
			return binpack.New(opts...)
		},
	}
	return e
}

func (e *Engine) acquire() *binpack.Engine {
	return e.pool.Get().(*binpack.Engine)
}

func (e *Engine) release(inner *binpack.Engine) {
	inner.Reset()
	e.pool.Put(inner)
}

// Marshal serializes a value using a pooled engine.
func Marshal[T any](e *Engine, value T) ([]byte, error) {
	inner := e.acquire()
	defer e.release(inner)
	return binpack.Marshal(inner, value)
}

// Unmarshal deserializes data into a fresh value using a pooled engine.
func Unmarshal[T any](e *Engine, data []byte) (T, error) {
	inner := e.acquire()
	defer e.release(inner)
	return binpack.Unmarshal[T](inner, data)
}

// UnmarshalInto deserializes data into target using a pooled engine.
func UnmarshalInto[T any](e *Engine, data []byte, target *T) error {
	inner := e.acquire()
	defer e.release(inner)
	return binpack.UnmarshalInto(inner, data, target)
}

// CloneInto deep-copies src into target using a pooled engine.
func CloneInto[T any](e *Engine, src T, target *T) error {
	inner := e.acquire()
	defer e.release(inner)
	return binpack.CloneInto(inner, src, target)
}

// ClearValue clears target using a pooled engine.
func ClearValue[T any](e *Engine, target *T) error {
	inner := e.acquire()
	defer e.release(inner)
	return binpack.ClearValue(inner, target)
}
