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
	"encoding/binary"
	"errors"
	"math"
)

// ErrEndOfBuffer indicates a read past the written region of a buffer
var ErrEndOfBuffer = errors.New("binpack: read past end of buffer")

// Integer bounds used by length and varint validation
const (
	MaxInt32 = math.MaxInt32
	MinInt32 = math.MinInt32
	MinInt16 = math.MinInt16
	MinInt8  = math.MinInt8
)

// ============================================================================
// ByteBuffer - Sequential cursor-based binary buffer
// ============================================================================

// ByteBuffer is a growable binary buffer with independent reader and writer
// cursors. All multi-byte primitives use little-endian byte order.
type ByteBuffer struct {
	data        []byte
	writerIndex int
	readerIndex int
}

// NewByteBuffer creates a buffer. A non-nil data slice is readable from the
// start; the writer cursor is placed after it.
func NewByteBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{data: data, writerIndex: len(data)}
}

// Reset rewinds both cursors without releasing the backing storage.
func (b *ByteBuffer) Reset() {
	b.writerIndex = 0
	b.readerIndex = 0
}

// WriterIndex returns the current writer cursor position.
func (b *ByteBuffer) WriterIndex() int { return b.writerIndex }

// ReaderIndex returns the current reader cursor position.
func (b *ByteBuffer) ReaderIndex() int { return b.readerIndex }

// Remaining returns the number of unread bytes.
func (b *ByteBuffer) Remaining() int { return b.writerIndex - b.readerIndex }

// GetByteSlice returns a copy of the bytes in [start, end).
func (b *ByteBuffer) GetByteSlice(start, end int) []byte {
	out := make([]byte, end-start)
	copy(out, b.data[start:end])
	return out
}

func (b *ByteBuffer) grow(n int) {
	need := b.writerIndex + n
	if need <= len(b.data) {
		return
	}
	newCap := 2 * (len(b.data) + 1)
	if newCap < need {
		newCap = need
	}
	data := make([]byte, newCap)
	copy(data, b.data)
	b.data = data
}

func (b *ByteBuffer) readable(n int) error {
	if b.readerIndex+n > b.writerIndex {
		return ErrEndOfBuffer
	}
	return nil
}

// ============================================================================
// Writes
// ============================================================================

func (b *ByteBuffer) WriteByte_(v byte) {
	b.grow(1)
	b.data[b.writerIndex] = v
	b.writerIndex++
}

func (b *ByteBuffer) WriteBool(v bool) {
	if v {
		b.WriteByte_(1)
	} else {
		b.WriteByte_(0)
	}
}

func (b *ByteBuffer) WriteInt16(v int16) {
	b.grow(2)
	binary.LittleEndian.PutUint16(b.data[b.writerIndex:], uint16(v))
	b.writerIndex += 2
}

func (b *ByteBuffer) WriteInt32(v int32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], uint32(v))
	b.writerIndex += 4
}

func (b *ByteBuffer) WriteInt64(v int64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], uint64(v))
	b.writerIndex += 8
}

func (b *ByteBuffer) WriteFloat32(v float32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], math.Float32bits(v))
	b.writerIndex += 4
}

func (b *ByteBuffer) WriteFloat64(v float64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], math.Float64bits(v))
	b.writerIndex += 8
}

func (b *ByteBuffer) WriteBinary(v []byte) {
	b.grow(len(v))
	copy(b.data[b.writerIndex:], v)
	b.writerIndex += len(v)
}

// WriteVarUint32 writes v in LEB128 encoding and returns the number of bytes
// written (1-5).
func (b *ByteBuffer) WriteVarUint32(v uint32) int8 {
	var n int8
	for {
		n++
		if v < 0x80 {
			b.WriteByte_(byte(v))
			return n
		}
		b.WriteByte_(byte(v&0x7F | 0x80))
		v >>= 7
	}
}

// WriteVarint32 writes the two's complement bits of v as a varint. Negative
// values always take 5 bytes.
func (b *ByteBuffer) WriteVarint32(v int32) int8 {
	return b.WriteVarUint32(uint32(v))
}

// ============================================================================
// Reads
// ============================================================================

func (b *ByteBuffer) ReadByte_() (byte, error) {
	if err := b.readable(1); err != nil {
		return 0, err
	}
	v := b.data[b.readerIndex]
	b.readerIndex++
	return v, nil
}

func (b *ByteBuffer) ReadBool() (bool, error) {
	v, err := b.ReadByte_()
	return v != 0, err
}

func (b *ByteBuffer) ReadInt16() (int16, error) {
	if err := b.readable(2); err != nil {
		return 0, err
	}
	v := int16(binary.LittleEndian.Uint16(b.data[b.readerIndex:]))
	b.readerIndex += 2
	return v, nil
}

func (b *ByteBuffer) ReadInt32() (int32, error) {
	if err := b.readable(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(b.data[b.readerIndex:]))
	b.readerIndex += 4
	return v, nil
}

func (b *ByteBuffer) ReadInt64() (int64, error) {
	if err := b.readable(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(b.data[b.readerIndex:]))
	b.readerIndex += 8
	return v, nil
}

func (b *ByteBuffer) ReadFloat32() (float32, error) {
	if err := b.readable(4); err != nil {
		return 0, err
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(b.data[b.readerIndex:]))
	b.readerIndex += 4
	return v, nil
}

func (b *ByteBuffer) ReadFloat64() (float64, error) {
	if err := b.readable(8); err != nil {
		return 0, err
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(b.data[b.readerIndex:]))
	b.readerIndex += 8
	return v, nil
}

// ReadBinary returns the next n bytes. The returned slice aliases the buffer
// and is only valid until the next write.
func (b *ByteBuffer) ReadBinary(n int) ([]byte, error) {
	if err := b.readable(n); err != nil {
		return nil, err
	}
	v := b.data[b.readerIndex : b.readerIndex+n]
	b.readerIndex += n
	return v, nil
}

func (b *ByteBuffer) ReadVarUint32() (uint32, error) {
	var v uint32
	var shift uint
	for {
		c, err := b.ReadByte_()
		if err != nil {
			return 0, err
		}
		v |= uint32(c&0x7F) << shift
		if c < 0x80 {
			return v, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, ErrEndOfBuffer
		}
	}
}

func (b *ByteBuffer) ReadVarint32() (int32, error) {
	v, err := b.ReadVarUint32()
	return int32(v), err
}
