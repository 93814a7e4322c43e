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

// Func2RowsFunc consumes one nInputs-length row from each of two aligned
// upstream sources and produces one nOutputs-length output row. It is
// called at most once per distinct output row during a run; the tool
// caches results by the row's base offset.
type Func2RowsFunc func(left, right []float64) []float64

// Func2RowsTool combines two upstream sources row by row along their
// common fastest-varying dimension, which must be the first character of
// both sources' dimension strings. It caches each computed output row so
// that successive small reads into the same row only invoke the callback
// once.
type Func2RowsTool struct {
	BaseTool

	nInputs  int64
	nOutputs int64
	fn       Func2RowsFunc

	rowDim byte
	cache  map[int64][]float64
}

// NewFunc2RowsTool builds an unconnected two-sink tool owned by arena. Its
// sinks are named "left" and "right".
func NewFunc2RowsTool(arena *Arena, nInputs, nOutputs int64, fn Func2RowsFunc) *Func2RowsTool {
	if nInputs <= 0 || nOutputs <= 0 {
		Abort("func2rows", "nInputs and nOutputs must be positive, got %d and %d", nInputs, nOutputs)
	}
	t := &Func2RowsTool{nInputs: nInputs, nOutputs: nOutputs, fn: fn, cache: make(map[int64][]float64)}
	t.TypeName = "func2rows"
	left := NewSink(t)
	left.Name = "left"
	right := NewSink(t)
	right.Name = "right"
	t.AddSink(left)
	t.AddSink(right)

	src := NewSource(t)
	src.Name = "output"
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
		return func2RowsGetChunk(t, size, offset, buf)
	}
	t.AddSource(src)
	arena.Own(t)
	return t
}

func (t *Func2RowsTool) leftSource() *Source  { return t.SinkByName("left").Source }
func (t *Func2RowsTool) rightSource() *Source { return t.SinkByName("right").Source }

// Init validates that both upstream sources share the same shape, then
// derives the output's dimension string by scaling the extent of the
// shared fastest dimension from nInputs-per-row to nOutputs-per-row.
func (t *Func2RowsTool) Init() error {
	if err := t.BaseTool.Init(); err != nil {
		return err
	}
	left := t.leftSource()
	right := t.rightSource()

	leftDims := GetSourceDims(left)
	rightDims := GetSourceDims(right)
	if leftDims == "" || leftDims != rightDims {
		Abort(t.TypeName, "left and right inputs have mismatched dimension strings %q vs %q", leftDims, rightDims)
	}
	for i := 0; i < len(leftDims); i++ {
		c := leftDims[i]
		le := GetSourceDimExtent(left, c)
		re := GetSourceDimExtent(right, c)
		if le != re {
			Abort(t.TypeName, "left and right inputs have mismatched extent for dimension %c: %d vs %d", c, le, re)
		}
	}
	t.rowDim = leftDims[0]
	rowExtent := GetSourceDimExtent(left, t.rowDim)
	if rowExtent%t.nInputs != 0 {
		Abort(t.TypeName, "dimension %c extent %d is not a multiple of nInputs=%d", t.rowDim, rowExtent, t.nInputs)
	}
	rowCount := rowExtent / t.nInputs

	mySrc := t.Sources[0]
	CopyUniqueExceptHashes(mySrc.Attrs, left.Attrs)
	SetSourceDims(mySrc, leftDims)
	SetSourceDimExtent(mySrc, t.rowDim, rowCount*t.nOutputs)
	for i := 1; i < len(leftDims); i++ {
		SetSourceDimExtent(mySrc, leftDims[i], GetSourceDimExtent(left, leftDims[i]))
	}
	mySrc.Attrs.Define("datatype", "float64")
	return nil
}

func func2RowsGetChunk(t *Func2RowsTool, size, offset int64, buf []float64) (int64, error) {
	var done int64
	for done < size {
		cur := offset + done
		baseOffset := cur - cur%t.nOutputs
		row, err := t.getRow(baseOffset)
		if err != nil {
			return done, err
		}
		inRowOffset := cur - baseOffset
		avail := t.nOutputs - inRowOffset
		n := size - done
		if n > avail {
			n = avail
		}
		copy(buf[done:done+n], row[inRowOffset:inRowOffset+n])
		done += n
	}
	return done, nil
}

func (t *Func2RowsTool) getRow(baseOffset int64) ([]float64, error) {
	if row, ok := t.cache[baseOffset]; ok {
		return row, nil
	}
	upstreamBase := baseOffset * t.nInputs / t.nOutputs

	left := make([]float64, t.nInputs)
	if err := ForceGetAll(t.leftSource(), t.nInputs, upstreamBase, left); err != nil {
		return nil, err
	}
	right := make([]float64, t.nInputs)
	if err := ForceGetAll(t.rightSource(), t.nInputs, upstreamBase, right); err != nil {
		return nil, err
	}

	row := t.fn(left, right)
	if int64(len(row)) != t.nOutputs {
		Abort(t.TypeName, "callback returned %d elements, want %d", len(row), t.nOutputs)
	}
	t.cache[baseOffset] = row
	return row, nil
}

// Destroy drops the row cache along with the base tool's ports.
func (t *Func2RowsTool) Destroy() {
	t.cache = nil
	t.BaseTool.Destroy()
}
