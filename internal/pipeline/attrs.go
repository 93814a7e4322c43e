// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import "sort"

// AttrValue is the sum type held by an AttrDict entry: either a plain
// string, or a sub-map ("hash") of opaque user metadata that does not
// round-trip through CopyUniqueExceptHashes.
type AttrValue struct {
	str    string
	sub    map[string]string
	isHash bool
}

// StringValue wraps a plain string attribute.
func StringValue(s string) AttrValue { return AttrValue{str: s} }

// HashValue wraps a sub-map attribute. Hash-valued entries are skipped by
// CopyUniqueExceptHashes.
func HashValue(m map[string]string) AttrValue { return AttrValue{sub: m, isHash: true} }

// IsHash reports whether v holds a sub-map rather than a plain string.
func (v AttrValue) IsHash() bool { return v.isHash }

// AttrDict is a string-keyed attribute dictionary attached to a Source.
// Recognized keys include "dimensions", "extent.<c>", "datatype", "name",
// plus arbitrary opaque user metadata that must round-trip unmodified.
type AttrDict struct {
	m map[string]AttrValue
}

// NewAttrDict returns an empty attribute dictionary.
func NewAttrDict() *AttrDict {
	return &AttrDict{m: make(map[string]AttrValue)}
}

// Define replaces the value at key with a plain string.
func (d *AttrDict) Define(key, value string) {
	d.m[key] = StringValue(value)
}

// DefineHash replaces the value at key with a sub-map.
func (d *AttrDict) DefineHash(key string, sub map[string]string) {
	d.m[key] = HashValue(sub)
}

// Lookup returns the plain-string value at key, if present and not a hash.
func (d *AttrDict) Lookup(key string) (string, bool) {
	v, ok := d.m[key]
	if !ok || v.isHash {
		return "", false
	}
	return v.str, true
}

// GetString returns the plain-string value at key, aborting (fatal) if it
// is missing, matching the original kvGetString "abort on missing" policy.
func (d *AttrDict) GetString(toolType, key string) string {
	v, ok := d.Lookup(key)
	if !ok {
		Abort(toolType, "missing required attribute %q", key)
	}
	return v
}

// Has reports whether key is present at all (string or hash valued).
func (d *AttrDict) Has(key string) bool {
	_, ok := d.m[key]
	return ok
}

// Keys returns every key in d, sorted, for deterministic iteration.
func (d *AttrDict) Keys() []string {
	keys := make([]string, 0, len(d.m))
	for k := range d.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Iterate calls fn once for every non-hash (string) key/value pair, in
// sorted key order. This is the "unique-key iterator" of spec.md §6: hash
// entries are never surfaced to callers walking the dictionary for
// persistence.
func (d *AttrDict) Iterate(fn func(key, value string)) {
	for _, k := range d.Keys() {
		v := d.m[k]
		if v.isHash {
			continue
		}
		fn(k, v.str)
	}
}

// CopyUniqueExceptHashes copies every pair from src into d except those
// whose value is a hash sub-map sentinel.
func CopyUniqueExceptHashes(dst, src *AttrDict) {
	src.Iterate(func(key, value string) {
		dst.Define(key, value)
	})
}
