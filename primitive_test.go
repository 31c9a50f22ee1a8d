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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarClearModes(t *testing.T) {
	require.Equal(t, ClearNotRequired, boolHandler{}.ClearRequired())
	require.Equal(t, ClearNotRequired, int32Handler{}.ClearRequired())
	require.Equal(t, ClearNotRequired, int64Handler{}.ClearRequired())
	require.Equal(t, ClearNotRequired, float64Handler{}.ClearRequired())
	require.Equal(t, ClearNotRequired, stringHandler{}.ClearRequired())
	// bytes release a backing array, so they opt in.
	require.Equal(t, ClearRequired, bytesHandler{}.ClearRequired())

	// The conservative default: only an explicit ClearNotRequired skips
	// clearing.
	require.True(t, ClearUnknown.Needed())
	require.True(t, ClearRequired.Needed())
	require.False(t, ClearNotRequired.Needed())
}

func TestBytesDeserializeReusesCapacity(t *testing.T) {
	r := NewRegistry()
	registerBuiltins(r)
	h, err := GetHandler[[]byte](r)
	require.NoError(t, err)

	wctx := NewWriteContext(r)
	require.NoError(t, h.Serialize(wctx, []byte{9, 8}))

	target := make([]byte, 16)
	base := &target[0]
	rctx := NewReadContext(r)
	rctx.SetData(wctx.Buffer().GetByteSlice(0, wctx.Buffer().WriterIndex()))
	require.NoError(t, h.Deserialize(rctx, &target))

	require.Equal(t, []byte{9, 8}, target)
	require.Same(t, base, &target[0])
}

func TestBytesCloneCopies(t *testing.T) {
	r := NewRegistry()
	registerBuiltins(r)
	h, err := GetHandler[[]byte](r)
	require.NoError(t, err)

	src := []byte{1, 2, 3}
	var target []byte
	ctx := NewCloneContext(r)
	require.NoError(t, h.Clone(ctx, src, &target))
	require.Equal(t, src, target)

	src[0] = 42
	require.Equal(t, byte(1), target[0])
}

func TestBytesClearReleasesStorage(t *testing.T) {
	r := NewRegistry()
	registerBuiltins(r)
	h, err := GetHandler[[]byte](r)
	require.NoError(t, err)

	target := []byte{1, 2, 3}
	ctx := NewCloneContext(r)
	require.NoError(t, h.Clear(ctx, &target))
	require.Nil(t, target)
}

func TestStringHandlerRoundTrip(t *testing.T) {
	r := NewRegistry()
	registerBuiltins(r)
	h, err := GetHandler[string](r)
	require.NoError(t, err)

	for _, s := range []string{"", "x", "héllo wörld"} {
		wctx := NewWriteContext(r)
		require.NoError(t, h.Serialize(wctx, s))
		rctx := NewReadContext(r)
		rctx.SetData(wctx.Buffer().GetByteSlice(0, wctx.Buffer().WriterIndex()))
		var out string
		require.NoError(t, h.Deserialize(rctx, &out))
		require.Equal(t, s, out)
	}
}
