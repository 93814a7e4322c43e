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

import (
	"strconv"
	"strings"
)

// GetSourceDims returns src's dimension string, or "" if unset.
func GetSourceDims(src *Source) string {
	v, _ := src.Attrs.Lookup("dimensions")
	return v
}

// SetSourceDims sets src's dimension string.
func SetSourceDims(src *Source, dims string) {
	src.Attrs.Define("dimensions", dims)
}

// GetSourceDimExtent returns the extent recorded for dimension c on src,
// aborting if the key is missing or does not parse as a positive integer
// (spec.md invariant: every dims[i] has a matching extent.<c> key).
func GetSourceDimExtent(src *Source, c byte) int64 {
	key := "extent." + string(c)
	v := src.Attrs.GetString(ownerTypeName(src), key)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		Abort(ownerTypeName(src), "extent.%c does not parse to a positive integer: %q", c, v)
	}
	return n
}

// SetSourceDimExtent records extent n for dimension c on src.
func SetSourceDimExtent(src *Source, c byte, n int64) {
	src.Attrs.Define("extent."+string(c), strconv.FormatInt(n, 10))
}

// GetSourceDataType parses src's "datatype" attribute.
func GetSourceDataType(src *Source) DataType {
	v := src.Attrs.GetString(ownerTypeName(src), "datatype")
	dt, ok := ParseDataType(v)
	if !ok {
		Abort(ownerTypeName(src), "unrecognized datatype %q", v)
	}
	return dt
}

// TotalElements returns the product of every dimension's extent on src,
// i.e. the source's total size in elements.
func TotalElements(src *Source) int64 {
	dims := GetSourceDims(src)
	var total int64 = 1
	for i := 0; i < len(dims); i++ {
		total *= GetSourceDimExtent(src, dims[i])
	}
	return total
}

// CalcSourceBlockSizes computes, for dimension c within dimstr on src,
// the fast block size (the product of extents of dimensions appearing
// before c, 1 if none) and the slow block size (the product of extents
// strictly after c, 1 if none). dimstr need not equal src's own current
// dimension string (block-map and pad call this with the upstream
// source's string while src is being reshaped).
func CalcSourceBlockSizes(src *Source, dimstr string, c byte) (fast, slow int64) {
	idx := strings.IndexByte(dimstr, c)
	if idx < 0 {
		Abort(ownerTypeName(src), "dimension %c not present in %q", c, dimstr)
	}
	fast, slow = 1, 1
	for i := 0; i < idx; i++ {
		fast *= GetSourceDimExtent(src, dimstr[i])
	}
	for i := idx + 1; i < len(dimstr); i++ {
		slow *= GetSourceDimExtent(src, dimstr[i])
	}
	return fast, slow
}

// ValidateDims checks the invariant from spec.md §3: dims has length L,
// and for every position 0<=i<L the key extent.<dims[i]> exists and
// parses to a positive integer. It aborts on violation.
func ValidateDims(src *Source) {
	dims := GetSourceDims(src)
	if dims == "" {
		Abort(ownerTypeName(src), "source has no dimensions attribute")
	}
	for i := 0; i < len(dims); i++ {
		_ = GetSourceDimExtent(src, dims[i])
	}
}
