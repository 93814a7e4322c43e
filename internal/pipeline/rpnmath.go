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
	"fmt"

	"github.com/expr-lang/expr/vm"
	"github.com/jwelling/mripipes/internal/rpn"
)

// RPNChunkSize is the output-side buffering window's element count: a
// refill computes at most this many real samples, or this many complex
// samples (2*RPNChunkSize raw float64 slots) for the complex variant.
const RPNChunkSize = 4096

// RPNMathTool evaluates a postfix ("RPN") expression script against any
// number of upstream sinks, producing one output sample per evaluation.
// Sinks grow dynamically: connecting the current last sink appends a new
// unconnected one, so a caller can keep wiring $1, $2, $3, ... without
// pre-declaring an arity. Init trims the one trailing sink that never got
// connected.
//
// In the complex variant every upstream sink and the tool's own output
// carry interleaved (real, imaginary) float64 pairs rather than one value
// per element, and offset/size at the GetFloat64 boundary count raw
// interleaved slots, matching the real variant's accessor so callers need
// not special-case it. The script itself is evaluated independently
// against the real channel and the imaginary channel (input(k, rel)
// reads whichever channel is being evaluated) rather than through a
// complex-arithmetic-aware expression evaluator: this is exact for
// scripts built from +, -, and neg (which distribute over real/imaginary
// parts) and is a documented approximation for *, /, and the
// trigonometric/exponential operators, which don't decompose
// component-wise — see DESIGN.md.
type RPNMathTool struct {
	BaseTool

	tokens    []string
	isComplex bool

	engine  *rpn.Engine
	program *vm.Program

	upstreamTotals []int64
	missingRun     int

	obuf            []float64
	obufOffset      int64
	obufValidLength int64
}

// NewRPNMathTool builds an RPN math tool with a single unconnected tail
// sink ("in1") and one output source ("output"). tokens is a postfix
// script as understood by rpn.ToInfix.
func NewRPNMathTool(arena *Arena, tokens []string, isComplex bool) *RPNMathTool {
	t := &RPNMathTool{tokens: tokens, isComplex: isComplex, engine: rpn.NewEngine()}
	t.TypeName = "rpn_math"

	tail := NewSink(t)
	tail.Name = "in1"
	t.AddSink(tail)

	src := NewSource(t)
	src.Name = "output"
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
		return rpnMathGetChunk(t, size, offset, buf)
	}
	t.AddSource(src)
	arena.Own(t)
	return t
}

// Connect wires src onto sink idx (0-based), growing the sink list as
// needed, and appends a fresh unconnected tail sink when idx was the
// current last sink.
func (t *RPNMathTool) Connect(idx int, src *Source) {
	for len(t.Sinks) <= idx {
		s := NewSink(t)
		s.Name = fmt.Sprintf("in%d", len(t.Sinks)+1)
		t.AddSink(s)
	}
	t.Sinks[idx].Connect(src)
	if idx == len(t.Sinks)-1 {
		s := NewSink(t)
		s.Name = fmt.Sprintf("in%d", len(t.Sinks)+1)
		t.AddSink(s)
	}
}

// Init trims the trailing unconnected sink, compiles the RPN script, and
// copies shape metadata from the first connected sink.
func (t *RPNMathTool) Init() error {
	if n := len(t.Sinks); n > 0 && t.Sinks[n-1].Source == nil {
		t.Sinks = t.Sinks[:n-1]
	}
	if len(t.Sinks) == 0 {
		Abort(t.TypeName, "no inputs connected")
	}
	if err := t.BaseTool.Init(); err != nil {
		return err
	}

	program, err := t.engine.Compile(t.tokens)
	if err != nil {
		Abort(t.TypeName, "%s", err.Error())
	}
	t.program = program

	t.upstreamTotals = make([]int64, len(t.Sinks))
	for i, s := range t.Sinks {
		t.upstreamTotals[i] = TotalElements(s.Source)
	}

	first := t.Sinks[0].Source
	mySrc := t.Sources[0]
	CopyUniqueExceptHashes(mySrc.Attrs, first.Attrs)
	SetSourceDims(mySrc, GetSourceDims(first))
	for i := 0; i < len(GetSourceDims(first)); i++ {
		c := GetSourceDims(first)[i]
		SetSourceDimExtent(mySrc, c, GetSourceDimExtent(first, c))
	}
	if t.isComplex {
		mySrc.Attrs.Define("datatype", "float64")
		mySrc.Attrs.Define("complex", "true")
	} else {
		mySrc.Attrs.Define("datatype", "float64")
	}
	return nil
}

// readOne returns the single sample at element pos, channel part (0 for
// real/the only channel, 1 for imaginary), from sink idx, and false if
// the position is out of range or upstream produced a short (non-fatal)
// read. In the complex variant pos addresses a complex element and is
// translated to the interleaved raw offset 2*pos+part before reaching
// the upstream source.
func (t *RPNMathTool) readOne(idx int, pos int64, part int64) (float64, bool) {
	if idx < 0 || idx >= len(t.Sinks) {
		Abort(t.TypeName, "script references input %d but only %d are connected", idx+1, len(t.Sinks))
	}
	if pos < 0 || pos >= t.upstreamTotals[idx] {
		return 0, false
	}
	rawOffset := pos
	if t.isComplex {
		rawOffset = 2*pos + part
	}
	var buf [1]float64
	n, err := GetChunk(t.Sinks[idx].Source, 1, rawOffset, buf[:])
	if err != nil {
		return 0, false
	}
	if n < 1 {
		return 0, false
	}
	return buf[0], true
}

// evalElement runs the compiled script once for the complex element (or
// sole channel) at pos, channel part.
func (t *RPNMathTool) evalElement(pos int64, part int64) float64 {
	t.missingRun = 0
	env := map[string]any{
		"input": func(k, rel int) float64 {
			v, ok := t.readOne(k-1, pos+int64(rel), part)
			if ok {
				t.missingRun = 0
			} else {
				t.missingRun++
			}
			return v
		},
		"missing": func(z float64, threshold int) float64 {
			if t.missingRun >= threshold {
				return z
			}
			return 0
		},
	}
	v, err := t.engine.Run(t.program, env)
	if err != nil {
		Abort(t.TypeName, "%s", err.Error())
	}
	return v
}

// fillBuffer recomputes the output buffer to cover [offset, offset+size)
// unless the current buffer already does, mirroring the original's
// obuf/obufOffset/obufValidLength window: a window miss recomputes up to
// RPNChunkSize samples (real) or RPNChunkSize complex pairs (complex,
// 2*RPNChunkSize raw slots) starting at the window's base offset.
func (t *RPNMathTool) fillBuffer(size, offset int64) {
	if t.obufValidLength > 0 && offset >= t.obufOffset && offset+size <= t.obufOffset+t.obufValidLength {
		return
	}

	if t.isComplex {
		base := (offset / 2) * 2
		rawSpan := (offset - base) + size
		nComplex := (rawSpan + 1) / 2
		if nComplex > RPNChunkSize {
			nComplex = RPNChunkSize
		}
		if nComplex < 1 {
			nComplex = 1
		}
		if int64(len(t.obuf)) < 2*RPNChunkSize {
			t.obuf = make([]float64, 2*RPNChunkSize)
		}
		basePos := base / 2
		for i := int64(0); i < nComplex; i++ {
			pos := basePos + i
			t.obuf[2*i] = t.evalElement(pos, 0)
			t.obuf[2*i+1] = t.evalElement(pos, 1)
		}
		t.obufOffset = base
		t.obufValidLength = 2 * nComplex
		return
	}

	n := size
	if n > RPNChunkSize {
		n = RPNChunkSize
	}
	if int64(len(t.obuf)) < RPNChunkSize {
		t.obuf = make([]float64, RPNChunkSize)
	}
	for i := int64(0); i < n; i++ {
		t.obuf[i] = t.evalElement(offset+i, 0)
	}
	t.obufOffset = offset
	t.obufValidLength = n
}

func rpnMathGetChunk(t *RPNMathTool, size, offset int64, buf []float64) (int64, error) {
	t.fillBuffer(size, offset)

	shift := offset - t.obufOffset
	n := t.obufValidLength - shift
	if n > size {
		n = size
	}
	if n <= 0 {
		return 0, nil
	}
	copy(buf[:n], t.obuf[shift:shift+n])
	return n, nil
}
