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

// ============================================================================
// Scalar handlers - implement the four-phase Handler contract
// ============================================================================

// scalarSchema builds (or reuses) the schema for a scalar storage type.
// Scalar schemas have no members and format version 1.
func scalarSchema(r *Registry, existing *Schema, typeName string) (*Schema, error) {
	if existing != nil {
		return existing, nil
	}
	name := r.Schemas().ContractName(typeName, r.RuntimeVersion())
	if s, ok := r.Schemas().Lookup(name); ok {
		return s, nil
	}
	s := &Schema{
		Name:          name,
		ID:            r.Schemas().SchemaID(name),
		StorageType:   typeName,
		FormatVersion: ScalarSchemaVersion,
	}
	return r.Schemas().Register(s), nil
}

// boolHandler handles bool values
type boolHandler struct{}

func (boolHandler) TypeName() string { return "bool" }
func (boolHandler) ClearRequired() ClearMode { return ClearNotRequired }

func (boolHandler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "bool")
}

func (boolHandler) Serialize(ctx *WriteContext, value bool) error {
	ctx.Buffer().WriteBool(value)
	return nil
}

func (boolHandler) Deserialize(ctx *ReadContext, target *bool) error {
	v, err := ctx.Buffer().ReadBool()
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func (boolHandler) Clone(ctx *CloneContext, src bool, target *bool) error {
	*target = src
	return nil
}

func (boolHandler) Clear(ctx *CloneContext, target *bool) error {
	*target = false
	return nil
}

// int32Handler handles int32 values as fixed 4-byte little-endian
type int32Handler struct{}

func (int32Handler) TypeName() string { return "int32" }
func (int32Handler) ClearRequired() ClearMode { return ClearNotRequired }

func (int32Handler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "int32")
}

func (int32Handler) Serialize(ctx *WriteContext, value int32) error {
	ctx.Buffer().WriteInt32(value)
	return nil
}

func (int32Handler) Deserialize(ctx *ReadContext, target *int32) error {
	v, err := ctx.Buffer().ReadInt32()
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func (int32Handler) Clone(ctx *CloneContext, src int32, target *int32) error {
	*target = src
	return nil
}

func (int32Handler) Clear(ctx *CloneContext, target *int32) error {
	*target = 0
	return nil
}

// int64Handler handles int64 values as fixed 8-byte little-endian
type int64Handler struct{}

func (int64Handler) TypeName() string { return "int64" }
func (int64Handler) ClearRequired() ClearMode { return ClearNotRequired }

func (int64Handler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "int64")
}

func (int64Handler) Serialize(ctx *WriteContext, value int64) error {
	ctx.Buffer().WriteInt64(value)
	return nil
}

func (int64Handler) Deserialize(ctx *ReadContext, target *int64) error {
	v, err := ctx.Buffer().ReadInt64()
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func (int64Handler) Clone(ctx *CloneContext, src int64, target *int64) error {
	*target = src
	return nil
}

func (int64Handler) Clear(ctx *CloneContext, target *int64) error {
	*target = 0
	return nil
}

// float64Handler handles float64 values as fixed 8-byte little-endian
type float64Handler struct{}

func (float64Handler) TypeName() string { return "float64" }
func (float64Handler) ClearRequired() ClearMode { return ClearNotRequired }

func (float64Handler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "float64")
}

func (float64Handler) Serialize(ctx *WriteContext, value float64) error {
	ctx.Buffer().WriteFloat64(value)
	return nil
}

func (float64Handler) Deserialize(ctx *ReadContext, target *float64) error {
	v, err := ctx.Buffer().ReadFloat64()
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func (float64Handler) Clone(ctx *CloneContext, src float64, target *float64) error {
	*target = src
	return nil
}

func (float64Handler) Clear(ctx *CloneContext, target *float64) error {
	*target = 0
	return nil
}

// stringHandler handles strings as varuint32 length + UTF-8 bytes. Strings
// are immutable, so cloning shares the value and clearing just drops it.
type stringHandler struct{}

func (stringHandler) TypeName() string { return "string" }
func (stringHandler) ClearRequired() ClearMode { return ClearNotRequired }

func (stringHandler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "string")
}

func (stringHandler) Serialize(ctx *WriteContext, value string) error {
	buf := ctx.Buffer()
	buf.WriteVarUint32(uint32(len(value)))
	if len(value) > 0 {
		buf.WriteBinary([]byte(value))
	}
	return nil
}

func (stringHandler) Deserialize(ctx *ReadContext, target *string) error {
	buf := ctx.Buffer()
	n, err := buf.ReadVarUint32()
	if err != nil {
		return err
	}
	if n == 0 {
		*target = ""
		return nil
	}
	data, err := buf.ReadBinary(int(n))
	if err != nil {
		return err
	}
	*target = string(data)
	return nil
}

func (stringHandler) Clone(ctx *CloneContext, src string, target *string) error {
	*target = src
	return nil
}

func (stringHandler) Clear(ctx *CloneContext, target *string) error {
	*target = ""
	return nil
}

// bytesHandler handles []byte as varuint32 length + raw bytes. Unlike the
// value scalars it reuses the target's backing storage on deserialize and
// clone, and clearing releases the backing array, so ClearRequired applies.
type bytesHandler struct{}

func (bytesHandler) TypeName() string { return "bytes" }
func (bytesHandler) ClearRequired() ClearMode { return ClearRequired }

func (bytesHandler) InitSchema(r *Registry, existing *Schema) (*Schema, error) {
	return scalarSchema(r, existing, "bytes")
}

func (bytesHandler) Serialize(ctx *WriteContext, value []byte) error {
	buf := ctx.Buffer()
	buf.WriteVarUint32(uint32(len(value)))
	buf.WriteBinary(value)
	return nil
}

func (bytesHandler) Deserialize(ctx *ReadContext, target *[]byte) error {
	buf := ctx.Buffer()
	n, err := buf.ReadVarUint32()
	if err != nil {
		return err
	}
	data, err := buf.ReadBinary(int(n))
	if err != nil {
		return err
	}
	*target = fitBytes(*target, int(n))
	copy(*target, data)
	return nil
}

func (bytesHandler) Clone(ctx *CloneContext, src []byte, target *[]byte) error {
	*target = fitBytes(*target, len(src))
	copy(*target, src)
	return nil
}

func (bytesHandler) Clear(ctx *CloneContext, target *[]byte) error {
	*target = nil
	return nil
}

// fitBytes resizes b to exactly n bytes, reusing its capacity when possible.
// An absent target always gets fresh storage, even for n == 0.
func fitBytes(b []byte, n int) []byte {
	if b == nil || cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
