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

import "strings"

// BlockMapInitFunc is called once, during Init, after the upstream shape
// and blocking geometry are fully resolved (e1 and e2 are the tool's own
// construction-time parameters, echoed back here rather than computed).
// It may reject the configuration by returning a non-nil error, which
// aborts Init.
type BlockMapInitFunc func(dim byte, inputDims string, fastBlksize, upstreamExtent, e1, e2, slowBlksize int64) error

// BlockMapRemapFunc is consulted before every pull. Given the caller's
// requested (size, offset), it returns the (size, offset) to forward to
// the upstream source unchanged: it may shrink size or shift offset (to
// skip a gap, subsample, or otherwise reindex), or return an error to
// abort the pull. A nil BlockMapRemapFunc is the identity mapping, which
// is what a plain dimension split (no reordering) needs.
type BlockMapRemapFunc func(size, offset int64) (newSize, newOffset int64, err error)

// BlockMapTool splits one upstream dimension into two downstream
// dimensions, dim (extent e1) and newdim (extent e2, inserted immediately
// after dim in the dimension string). e1 and e2 are fixed at
// construction, exactly as in the original: this tool never derives them
// from the upstream shape, it only validates that dim's upstream extent
// is large enough to hold e1.
type BlockMapTool struct {
	BaseTool

	dim    byte
	newdim byte
	e1, e2 int64
	init   BlockMapInitFunc
	remap  BlockMapRemapFunc

	upstreamExtent int64
	fastBlksize    int64
	slowBlksize    int64
}

// NewBlockMapTool builds an unconnected block-map tool owned by arena.
// init and remap may both be nil: a nil init never refuses, a nil remap
// forwards every request upstream unchanged.
func NewBlockMapTool(arena *Arena, dim, newdim byte, e1, e2 int64, init BlockMapInitFunc, remap BlockMapRemapFunc) *BlockMapTool {
	if e1 <= 0 {
		Abort("block_map", "invalid extent1 %d", e1)
	}
	if e2 <= 0 {
		Abort("block_map", "invalid extent2 %d", e2)
	}
	t := &BlockMapTool{dim: dim, newdim: newdim, e1: e1, e2: e2, init: init, remap: remap}
	t.TypeName = "block_map"
	t.AddSink(NewSink(t))
	src := NewSource(t)
	src.GetUint8 = func(size, offset int64, buf []uint8) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	src.GetInt16 = func(size, offset int64, buf []int16) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	src.GetInt32 = func(size, offset int64, buf []int32) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	src.GetInt64 = func(size, offset int64, buf []int64) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	src.GetFloat32 = func(size, offset int64, buf []float32) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) { return blockMapGetChunk(t, size, offset, buf) }
	t.AddSource(src)
	arena.Own(t)
	return t
}

func (t *BlockMapTool) upstream() *Source { return t.Sinks[0].Source }

// Init validates the dim/newdim structural preconditions, runs the
// caller's BlockMapInitFunc (if any) against the resolved geometry, and
// rewrites the output dimension string to insert newdim right after dim.
func (t *BlockMapTool) Init() error {
	if err := t.BaseTool.Init(); err != nil {
		return err
	}
	mySrc := t.Sources[0]
	up := t.upstream()
	CopyUniqueExceptHashes(mySrc.Attrs, up.Attrs)
	mySrc.Name = up.Name

	upDims := GetSourceDims(up)
	idx := strings.IndexByte(upDims, t.dim)
	if idx < 0 {
		Abort(t.TypeName, "upstream stream does not include dimension %c", t.dim)
	}
	if strings.IndexByte(upDims, t.newdim) >= 0 {
		Abort(t.TypeName, "new dimension %c already present upstream", t.newdim)
	}

	t.upstreamExtent = GetSourceDimExtent(up, t.dim)
	if t.upstreamExtent < t.e1 {
		Abort(t.TypeName, "upstream extent %d of dimension %c is less than E1=%d", t.upstreamExtent, t.dim, t.e1)
	}
	t.fastBlksize, t.slowBlksize = CalcSourceBlockSizes(up, upDims, t.dim)

	if t.init != nil {
		if err := t.init(t.dim, upDims, t.fastBlksize, t.upstreamExtent, t.e1, t.e2, t.slowBlksize); err != nil {
			Abort(t.TypeName, "init callback refused: %s", err.Error())
		}
	}

	newDims := upDims[:idx+1] + string(t.newdim) + upDims[idx+1:]
	SetSourceDims(mySrc, newDims)
	SetSourceDimExtent(mySrc, t.dim, t.e1)
	SetSourceDimExtent(mySrc, t.newdim, t.e2)
	for i := 0; i < len(upDims); i++ {
		if upDims[i] == t.dim {
			continue
		}
		SetSourceDimExtent(mySrc, upDims[i], GetSourceDimExtent(up, upDims[i]))
	}
	return nil
}

// blockMapGetChunk runs the request's (size, offset) through the remap
// callback, clips size to whatever the callback returned, and forwards
// the result upstream unmodified: the tool itself never reorders or
// reinterprets data, it only presents a relabeled shape.
func blockMapGetChunk[T Element](t *BlockMapTool, size, offset int64, buf []T) (int64, error) {
	if t.remap != nil {
		newSize, newOffset, err := t.remap(size, offset)
		if err != nil {
			return 0, err
		}
		if newSize < size {
			size = newSize
		}
		offset = newOffset
	}
	if size <= 0 {
		return 0, nil
	}
	return GetChunk(t.upstream(), size, offset, buf[:size])
}
