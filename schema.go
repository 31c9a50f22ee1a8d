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

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spaolacci/murmur3"
)

// Schema format versions. Collection schemas are fixed at version 2; scalar
// schemas at version 1.
const (
	ScalarSchemaVersion     int32 = 1
	CollectionSchemaVersion int32 = 2
)

const schemaHashSeed = 47

// Member describes one synthetic member of a type's wire shape.
type Member struct {
	Name         string
	TypeName     string
	IsCollection bool
}

// Schema is the immutable description of a type's wire shape: its contract
// name, stable numeric id, underlying storage type name and member layout.
// Schemas are created at most once per (process, type) pair; identity is
// owned by the SchemaRegistry, never by individual handlers.
type Schema struct {
	Name          string // contract name, unique within a process
	ID            int32
	StorageType   string
	IsCollection  bool
	Members       []Member
	FormatVersion int32
}

// ============================================================================
// SchemaRegistry - Contract names, ids and schema identity
// ============================================================================

// SchemaRegistry computes deterministic contract names and ids and owns the
// identity of every registered schema. Safe for concurrent use after
// construction.
type SchemaRegistry struct {
	schemas *xsync.MapOf[string, *Schema]
}

// NewSchemaRegistry creates an empty schema registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: xsync.NewMapOf[string, *Schema]()}
}

// ContractName computes the process-stable contract name for a storage type
// under the given runtime wire-format version.
func (sr *SchemaRegistry) ContractName(storageType string, runtimeVersion int32) string {
	return fmt.Sprintf("%s@v%d", storageType, runtimeVersion)
}

// SchemaID derives the stable numeric id for a contract name. The id is a
// truncated murmur3 hash; two names collide only if the hash does.
func (sr *SchemaRegistry) SchemaID(contractName string) int32 {
	h := murmur3.Sum64WithSeed([]byte(contractName), schemaHashSeed)
	return int32(h & 0x7FFFFFFF)
}

// Lookup returns the schema registered under a contract name.
func (sr *SchemaRegistry) Lookup(contractName string) (*Schema, bool) {
	return sr.schemas.Load(contractName)
}

// Register stores a schema under its contract name and returns the instance
// the registry owns. If a schema for the same contract name was registered
// earlier, that earlier instance wins and is returned; the argument is
// discarded.
func (sr *SchemaRegistry) Register(s *Schema) *Schema {
	owned, _ := sr.schemas.LoadOrStore(s.Name, s)
	return owned
}

// Len returns the number of registered schemas.
func (sr *SchemaRegistry) Len() int {
	return sr.schemas.Size()
}
