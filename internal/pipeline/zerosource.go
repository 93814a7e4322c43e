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

// ZeroSourceTool has one source and no sink. Every typed accessor returns
// size elements of zero without touching any real storage. It is
// configured at construction with a dimension string and a
// colon-separated extent string, e.g. NewZeroSourceTool(a, "xyz", "4:4:4").
type ZeroSourceTool struct {
	BaseTool
}

// NewZeroSourceTool builds a zero source of the given shape, returning an
// error (not a panic) if dims and extents don't line up 1:1 — matching
// the original's non-fatal factory-returns-null policy for this one
// construction path.
func NewZeroSourceTool(arena *Arena, dims string, extents string) (*ZeroSourceTool, error) {
	t := &ZeroSourceTool{}
	t.TypeName = "zero_source"
	src := NewSource(t)
	src.Name = "images"
	src.GetUint8 = func(size, offset int64, buf []uint8) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.GetInt16 = func(size, offset int64, buf []int16) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.GetInt32 = func(size, offset int64, buf []int32) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.GetInt64 = func(size, offset int64, buf []int64) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.GetFloat32 = func(size, offset int64, buf []float32) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
		for i := range buf[:size] {
			buf[i] = 0
		}
		return size, nil
	}
	src.Attrs.Define("datatype", "float64")
	src.Attrs.Define("dimensions", dims)

	extFields := strings.Split(extents, ":")
	if len(extFields) != len(dims) {
		return nil, errZeroSourceShape(dims, extents)
	}
	for i := 0; i < len(dims); i++ {
		n, err := strconv.ParseInt(extFields[i], 10, 64)
		if err != nil || n <= 0 {
			return nil, errZeroSourceShape(dims, extents)
		}
		SetSourceDimExtent(src, dims[i], n)
	}
	t.AddSource(src)
	arena.Own(t)
	return t, nil
}

func errZeroSourceShape(dims, extents string) error {
	return &FatalError{
		Tool:    "zero_source",
		Message: "dimension string \"" + dims + "\" and extent string \"" + extents + "\" don't match or extent syntax error",
	}
}
