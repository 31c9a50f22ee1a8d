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

// TestMarshalPrimitives exercises Marshal/Unmarshal with the builtin scalar
// handlers.
func TestMarshalPrimitives(t *testing.T) {
	e := New()

	t.Run("Bool", func(t *testing.T) {
		data, err := Marshal(e, true)
		require.NoError(t, err)
		result, err := Unmarshal[bool](e, data)
		require.NoError(t, err)
		require.True(t, result)
	})

	t.Run("Int32", func(t *testing.T) {
		data, err := Marshal(e, int32(-12345))
		require.NoError(t, err)
		result, err := Unmarshal[int32](e, data)
		require.NoError(t, err)
		require.Equal(t, int32(-12345), result)
	})

	t.Run("Int64", func(t *testing.T) {
		data, err := Marshal(e, int64(9876543210))
		require.NoError(t, err)
		result, err := Unmarshal[int64](e, data)
		require.NoError(t, err)
		require.Equal(t, int64(9876543210), result)
	})

	t.Run("Float64", func(t *testing.T) {
		data, err := Marshal(e, 2.71828)
		require.NoError(t, err)
		result, err := Unmarshal[float64](e, data)
		require.NoError(t, err)
		require.InDelta(t, 2.71828, result, 0.00001)
	})

	t.Run("String", func(t *testing.T) {
		data, err := Marshal(e, "hello binpack")
		require.NoError(t, err)
		result, err := Unmarshal[string](e, data)
		require.NoError(t, err)
		require.Equal(t, "hello binpack", result)

		data, err = Marshal(e, "")
		require.NoError(t, err)
		result, err = Unmarshal[string](e, data)
		require.NoError(t, err)
		require.Equal(t, "", result)
	})

	t.Run("Bytes", func(t *testing.T) {
		data, err := Marshal(e, []byte{1, 2, 3})
		require.NoError(t, err)
		result, err := Unmarshal[[]byte](e, data)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, result)
	})
}

func TestMarshalCollections(t *testing.T) {
	e := New()

	t.Run("Int32Slice", func(t *testing.T) {
		original := []int32{1, 2, 3, 4, 5}
		data, err := Marshal(e, original)
		require.NoError(t, err)
		result, err := Unmarshal[[]int32](e, data)
		require.NoError(t, err)
		require.Equal(t, original, result)
	})

	t.Run("StringSlice", func(t *testing.T) {
		original := []string{"a", "", "ccc"}
		data, err := Marshal(e, original)
		require.NoError(t, err)
		result, err := Unmarshal[[]string](e, data)
		require.NoError(t, err)
		require.Equal(t, original, result)
	})

	t.Run("ByteSliceSlice", func(t *testing.T) {
		original := [][]byte{{1}, {}, {2, 3}}
		data, err := Marshal(e, original)
		require.NoError(t, err)
		result, err := Unmarshal[[][]byte](e, data)
		require.NoError(t, err)
		require.Equal(t, original, result)
	})
}

func TestUnmarshalIntoReusesTarget(t *testing.T) {
	e := New()

	data, err := Marshal(e, []int32{7, 8})
	require.NoError(t, err)

	target := []int32{1, 2, 3, 4, 5}
	base := &target[0]
	require.NoError(t, UnmarshalInto(e, data, &target))
	require.Equal(t, []int32{7, 8}, target)
	require.Same(t, base, &target[0])
}

func TestCloneIntoIndependence(t *testing.T) {
	e := New()

	src := [][]byte{{1, 2}, {3}}
	var target [][]byte
	require.NoError(t, CloneInto(e, src, &target))
	require.Equal(t, src, target)

	// Deep-clone semantics: mutating a source element leaves the clone
	// untouched.
	src[0][0] = 99
	require.Equal(t, byte(1), target[0][0])
}

func TestClearValue(t *testing.T) {
	e := New()

	target := [][]byte{{1, 2}, {3}}
	require.NoError(t, ClearValue(e, &target))
	require.Len(t, target, 2)
	require.Nil(t, target[0])
	require.Nil(t, target[1])
}

func TestUnmarshalRejectsBadHeader(t *testing.T) {
	e := New()

	data, err := Marshal(e, int32(1))
	require.NoError(t, err)

	t.Run("Magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xFF
		_, err := Unmarshal[int32](e, bad)
		require.ErrorIs(t, err, ErrMagicNumber)
	})

	t.Run("FutureVersion", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[2] = byte(DefaultRuntimeVersion) + 1
		_, err := Unmarshal[int32](e, bad)
		require.ErrorIs(t, err, ErrVersion)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Unmarshal[int32](e, data[:1])
		require.ErrorIs(t, err, ErrEndOfBuffer)
	})
}

func TestMarshalUnregisteredType(t *testing.T) {
	type custom struct{}
	e := New()
	_, err := Marshal(e, custom{})
	require.ErrorIs(t, err, ErrSchema)
}

func TestWithSetupRegistersUserTypes(t *testing.T) {
	e := New(WithSetup(func(r *Registry) {
		_ = Register[resource](r, newResourceHandler(ClearRequired))
		_, _ = RegisterCollection[resource](r)
	}))

	original := []resource{1, 2, 3}
	data, err := Marshal(e, original)
	require.NoError(t, err)
	result, err := Unmarshal[[]resource](e, data)
	require.NoError(t, err)
	require.Equal(t, original, result)
}

func TestRuntimeVersionClampedToHeaderRange(t *testing.T) {
	// The header carries the version in one byte; an oversized configured
	// version must not wrap around and sneak past the future-version check.
	e := New(WithRuntimeVersion(MaxRuntimeVersion + 1))
	require.Equal(t, MaxRuntimeVersion, e.Registry().RuntimeVersion())

	data, err := Marshal(e, int32(7))
	require.NoError(t, err)
	require.Equal(t, byte(MaxRuntimeVersion), data[2])
	result, err := Unmarshal[int32](e, data)
	require.NoError(t, err)
	require.Equal(t, int32(7), result)

	e = New(WithRuntimeVersion(-3))
	require.Equal(t, int32(0), e.Registry().RuntimeVersion())
}
