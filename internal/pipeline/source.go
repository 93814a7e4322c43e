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

// Source is an output port of a Tool. Each of the six typed accessors is
// optional; a Tool sets only the ones its semantics serve. A nil accessor
// for a requested type is a fatal error (§4.1: "type accessor not
// provided by a source").
type Source struct {
	Owner Tool
	Name  string
	Attrs *AttrDict

	GetUint8   func(size, offset int64, buf []uint8) (int64, error)
	GetInt16   func(size, offset int64, buf []int16) (int64, error)
	GetInt32   func(size, offset int64, buf []int32) (int64, error)
	GetInt64   func(size, offset int64, buf []int64) (int64, error)
	GetFloat32 func(size, offset int64, buf []float32) (int64, error)
	GetFloat64 func(size, offset int64, buf []float64) (int64, error)
}

// NewSource returns a Source owned by owner, with an empty attribute
// dictionary and no accessors set.
func NewSource(owner Tool) *Source {
	return &Source{Owner: owner, Attrs: NewAttrDict()}
}

// GetChunk dispatches to the accessor matching T's runtime type, aborting
// if the source does not provide that type. It realizes the "single
// generic accessor parameterized by element type" re-architecture noted
// for the capability-set design: call sites that already know T at
// compile time (force-read helpers, tool internals) use this instead of
// repeating the six-way switch themselves.
func GetChunk[T Element](src *Source, size, offset int64, buf []T) (int64, error) {
	toolType := ownerTypeName(src)
	switch b := any(buf).(type) {
	case []uint8:
		if src.GetUint8 == nil {
			Abort(toolType, "source %q does not provide a uint8 accessor", src.Name)
		}
		return src.GetUint8(size, offset, b)
	case []int16:
		if src.GetInt16 == nil {
			Abort(toolType, "source %q does not provide an int16 accessor", src.Name)
		}
		return src.GetInt16(size, offset, b)
	case []int32:
		if src.GetInt32 == nil {
			Abort(toolType, "source %q does not provide an int32 accessor", src.Name)
		}
		return src.GetInt32(size, offset, b)
	case []int64:
		if src.GetInt64 == nil {
			Abort(toolType, "source %q does not provide an int64 accessor", src.Name)
		}
		return src.GetInt64(size, offset, b)
	case []float32:
		if src.GetFloat32 == nil {
			Abort(toolType, "source %q does not provide a float32 accessor", src.Name)
		}
		return src.GetFloat32(size, offset, b)
	case []float64:
		if src.GetFloat64 == nil {
			Abort(toolType, "source %q does not provide a float64 accessor", src.Name)
		}
		return src.GetFloat64(size, offset, b)
	default:
		Abort(toolType, "unsupported element type for GetChunk")
		return 0, nil
	}
}

func ownerTypeName(src *Source) string {
	if src == nil || src.Owner == nil {
		return "source"
	}
	return src.Owner.Base().TypeName
}

// ForceGetAll repeatedly pulls from src until n elements have been read
// into buf[:n] or end-of-stream is reached, aborting if upstream signals
// end-of-stream before n elements are delivered. This is the generic form
// of force_get_all_<type>; it underlies the func-2-rows tool's row pulls.
// The RPN math tool reads its inputs one element at a time with GetChunk
// instead.
func ForceGetAll[T Element](src *Source, n, offset int64, buf []T) error {
	var got int64
	toolType := ownerTypeName(src)
	for got < n {
		nGot, err := GetChunk(src, n-got, offset+got, buf[got:n])
		if err != nil {
			return err
		}
		if nGot == 0 {
			Abort(toolType, "premature end of stream: got %d of %d elements from %q", got, n, src.Name)
		}
		got += nGot
	}
	return nil
}
