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

// PadTool expands extent E (>= U+shift) along one dimension by filling
// the first `shift` slices and the last E-U-shift slices with fillValue,
// passing the middle U slices through from upstream.
type PadTool struct {
	BaseTool

	dim            byte
	shift          int64
	extent         int64 // output extent E
	upstreamExtent int64 // U, filled in at Init
	fastBlksize    int64
	slowBlksize    int64
	fillValue      float64
}

// NewPadTool builds a pad tool. extent must be positive and shift
// non-negative; either violation is a fatal construction error. That the
// upstream extent plus shift fits within extent is checked at Init.
func NewPadTool(arena *Arena, dim byte, extent int64, shift int64, fillValue float64) *PadTool {
	if extent <= 0 {
		Abort("pad", "invalid extent %d", extent)
	}
	if shift < 0 {
		Abort("pad", "invalid shift %d", shift)
	}
	t := &PadTool{dim: dim, shift: shift, extent: extent, fillValue: fillValue}
	t.TypeName = "pad"
	t.AddSink(NewSink(t))
	src := NewSource(t)
	src.GetUint8 = func(size, offset int64, buf []uint8) (int64, error) { return padGetChunk(t, size, offset, buf) }
	src.GetInt16 = func(size, offset int64, buf []int16) (int64, error) { return padGetChunk(t, size, offset, buf) }
	src.GetInt32 = func(size, offset int64, buf []int32) (int64, error) { return padGetChunk(t, size, offset, buf) }
	src.GetInt64 = func(size, offset int64, buf []int64) (int64, error) { return padGetChunk(t, size, offset, buf) }
	src.GetFloat32 = func(size, offset int64, buf []float32) (int64, error) { return padGetChunk(t, size, offset, buf) }
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) { return padGetChunk(t, size, offset, buf) }
	t.AddSource(src)
	arena.Own(t)
	return t
}

func (t *PadTool) upstream() *Source { return t.Sinks[0].Source }

// Init propagates upstream attributes, validates that dim is present in
// the upstream dimension string and that upstream_extent+shift <= extent,
// then edits the output's dims/extent and computes block sizes. Per the
// REDESIGN flag in spec.md §9, a successful configuration returns success
// (the original source returned 0 here, which is almost certainly a bug,
// not intent).
func (t *PadTool) Init() error {
	if err := t.BaseTool.Init(); err != nil {
		return err
	}
	mySrc := t.Sources[0]
	up := t.upstream()
	CopyUniqueExceptHashes(mySrc.Attrs, up.Attrs)
	mySrc.Name = up.Name

	upDims := GetSourceDims(up)
	t.upstreamExtent = GetSourceDimExtent(up, t.dim)

	if !containsByte(upDims, t.dim) {
		Abort(t.TypeName, "upstream stream does not include dimension %c", t.dim)
	}
	if t.upstreamExtent+t.shift > t.extent {
		Abort(t.TypeName, "upstream extent %d plus shift %d exceeds output extent %d",
			t.upstreamExtent, t.shift, t.extent)
	}

	SetSourceDimExtent(mySrc, t.dim, t.extent)
	t.fastBlksize, t.slowBlksize = CalcSourceBlockSizes(up, upDims, t.dim)
	return nil
}

func containsByte(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}

func padGetChunk[T Element](t *PadTool, size, offset int64, buf []T) (int64, error) {
	nFastBlks := offset / t.fastBlksize
	fastBlkOffset := offset - nFastBlks*t.fastBlksize
	nFullExtents := nFastBlks / t.extent
	extentOffset := nFastBlks - nFullExtents*t.extent

	maxSize := (t.extent-extentOffset)*t.fastBlksize - fastBlkOffset
	if size > maxSize {
		size = maxSize
	}

	baseOffset := offset

	// Leading fill region [0, shift).
	if extentOffset < t.shift {
		var n int64
		if fastBlkOffset > 0 {
			n += t.fastBlksize - fastBlkOffset
			fastBlkOffset = 0
			extentOffset++
		}
		if extentOffset < t.shift {
			n += (t.shift - extentOffset) * t.fastBlksize
			extentOffset = t.shift
		}
		if n > size {
			n = size
		}
		fillRange(buf[offset-baseOffset:offset-baseOffset+n], T(t.fillValue))
		offset += n
		size -= n
	}

	// Upstream passthrough region [shift, shift+U).
	if size > 0 && extentOffset-t.shift < t.upstreamExtent {
		upstreamOffset := (nFullExtents*t.upstreamExtent + (extentOffset - t.shift)) * t.fastBlksize + fastBlkOffset
		var n int64
		if fastBlkOffset > 0 {
			n += t.fastBlksize - fastBlkOffset
			fastBlkOffset = 0
			extentOffset++
		}
		if extentOffset-t.shift < t.upstreamExtent {
			n += (t.upstreamExtent + t.shift - extentOffset) * t.fastBlksize
			extentOffset = t.shift + t.upstreamExtent
		}
		if n > size {
			n = size
		}
		nGot, err := GetChunk(t.upstream(), n, upstreamOffset, buf[offset-baseOffset:offset-baseOffset+n])
		if err != nil {
			return 0, err
		}
		offset += nGot
		if nGot != n {
			// Upstream produced less than requested; stop here and do not
			// synthesize trailing fill behind a short upstream read.
			return offset - baseOffset, nil
		}
		size -= n
	}

	// Trailing fill region [shift+U, E).
	if size > 0 && extentOffset < t.extent {
		var n int64
		if fastBlkOffset > 0 {
			n += t.fastBlksize - fastBlkOffset
			fastBlkOffset = 0
			extentOffset++
		}
		if extentOffset < t.extent {
			n += (t.extent - extentOffset) * t.fastBlksize
			extentOffset = t.extent
		}
		if n > size {
			n = size
		}
		fillRange(buf[offset-baseOffset:offset-baseOffset+n], T(t.fillValue))
		offset += n
	}

	return offset - baseOffset, nil
}

func fillRange[T Element](buf []T, val T) {
	for i := range buf {
		buf[i] = val
	}
}
