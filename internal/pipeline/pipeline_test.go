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

package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jwelling/mripipes/internal/dataset"
	"github.com/jwelling/mripipes/internal/pipeline"
)

func TestZeroSourcePassthruDevnull(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	zero, err := pipeline.NewZeroSourceTool(arena, "xyz", "2:3:4")
	require.NoError(t, err)

	pass := pipeline.NewPassthruTool(arena)
	pass.Sinks[0].Connect(zero.Sources[0])

	sink := pipeline.NewDevnullTool(arena)
	sink.Sinks[0].Connect(pass.Sources[0])

	require.NoError(t, arena.InitAll())
	require.NoError(t, sink.Execute())

	require.Equal(t, "xyz", pipeline.GetSourceDims(pass.Sources[0]))
	require.Equal(t, int64(2), pipeline.GetSourceDimExtent(pass.Sources[0], 'x'))
	require.Equal(t, int64(4), pipeline.GetSourceDimExtent(pass.Sources[0], 'z'))
}

func TestZeroSourceShapeMismatchIsNonFatal(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	_, err := pipeline.NewZeroSourceTool(arena, "xyz", "2:3")
	require.Error(t, err)

	var fe *pipeline.FatalError
	require.ErrorAs(t, err, &fe)
}

func TestPadToolPassesThroughAndFills(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	zero, err := pipeline.NewZeroSourceTool(arena, "x", "4")
	require.NoError(t, err)

	pad := pipeline.NewPadTool(arena, 'x', 6, 1, 7.0)
	pad.Sinks[0].Connect(zero.Sources[0])

	require.NoError(t, arena.InitAll())

	buf := make([]float64, 6)
	n, err := pipeline.GetChunk(pad.Sources[0], 6, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)

	require.Equal(t, 7.0, buf[0])
	for i := 1; i < 5; i++ {
		require.Equal(t, 0.0, buf[i])
	}
	require.Equal(t, 7.0, buf[5])
}

func TestDevnullPullsUpstreamDry(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	zero, err := pipeline.NewZeroSourceTool(arena, "x", "10")
	require.NoError(t, err)

	sink := pipeline.NewDevnullTool(arena)
	sink.Sinks[0].Connect(zero.Sources[0])

	require.NoError(t, arena.InitAll())
	require.NoError(t, sink.Execute())
}

// TestFileInputOutputRoundTrip verifies that a file-input chunk passed
// through passthru into file-output comes out of the destination store
// byte-identical to the source.
func TestFileInputOutputRoundTrip(t *testing.T) {
	ctx := context.Background()

	src, err := dataset.OpenSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	defer src.Close()

	const n = 2 * 16 * 16 * 4 * 3
	require.NoError(t, src.CreateChunk(ctx, "images", n, 2))
	require.NoError(t, src.SetString(ctx, "images.dimensions", "vxyzt"))
	require.NoError(t, src.SetString(ctx, "images.datatype", "int16"))
	require.NoError(t, src.SetString(ctx, "images.extent.v", "2"))
	require.NoError(t, src.SetString(ctx, "images.extent.x", "16"))
	require.NoError(t, src.SetString(ctx, "images.extent.y", "16"))
	require.NoError(t, src.SetString(ctx, "images.extent.z", "4"))
	require.NoError(t, src.SetString(ctx, "images.extent.t", "3"))

	raw := make([]byte, n*2)
	for i := range raw {
		raw[i] = byte(i)
	}
	require.NoError(t, src.WriteChunk(ctx, "images", 0, n, raw))

	dst, err := dataset.OpenSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	defer dst.Close()

	arena := pipeline.NewArena()
	defer arena.Destroy()

	in, err := pipeline.NewFileInputTool(arena, src)
	require.NoError(t, err)
	var imagesSrc *pipeline.Source
	for _, s := range in.Sources {
		if s.Name == "images" {
			imagesSrc = s
		}
	}
	require.NotNil(t, imagesSrc)

	pass := pipeline.NewPassthruTool(arena)
	pass.Sinks[0].Connect(imagesSrc)

	out := pipeline.NewFileOutputTool(arena, dst)
	out.Connect(0, pass.Sources[0])

	require.NoError(t, arena.InitAll())
	require.NoError(t, out.Execute())

	got := make([]byte, n*2)
	read, err := dst.ReadChunk(ctx, "images", 0, n, got)
	require.NoError(t, err)
	require.Equal(t, int64(n), read)
	require.Equal(t, raw, got)

	dims, err := dst.GetString(ctx, "images.dimensions")
	require.NoError(t, err)
	require.Equal(t, "vxyzt", dims)
}

// TestRPNMathRealSum verifies that two zero-sources summed with
// "$1,$2,+" produce all zeros with leading extent 256.
func TestRPNMathRealSum(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	a, err := pipeline.NewZeroSourceTool(arena, "t", "256")
	require.NoError(t, err)
	b, err := pipeline.NewZeroSourceTool(arena, "t", "256")
	require.NoError(t, err)

	math := pipeline.NewRPNMathTool(arena, []string{"$1", "$2", "+"}, false)
	math.Connect(0, a.Sources[0])
	math.Connect(1, b.Sources[0])

	require.NoError(t, arena.InitAll())

	require.Equal(t, int64(256), pipeline.GetSourceDimExtent(math.Sources[0], 't'))

	buf := make([]float64, 256)
	n, err := pipeline.GetChunk(math.Sources[0], 256, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(256), n)
	for _, v := range buf {
		require.Equal(t, 0.0, v)
	}
}

// TestRPNMathOutputBufferWindow exercises the output-side buffering
// window directly: successive small reads within one refill's span must
// not desync from a later out-of-window read.
func TestRPNMathOutputBufferWindow(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	a, err := pipeline.NewZeroSourceTool(arena, "t", "64")
	require.NoError(t, err)

	math := pipeline.NewRPNMathTool(arena, []string{"$1", "1", "+"}, false)
	math.Connect(0, a.Sources[0])
	require.NoError(t, arena.InitAll())

	first := make([]float64, 4)
	n, err := pipeline.GetChunk(math.Sources[0], 4, 0, first)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	for _, v := range first {
		require.Equal(t, 1.0, v)
	}

	later := make([]float64, 4)
	n, err = pipeline.GetChunk(math.Sources[0], 4, 60, later)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	for _, v := range later {
		require.Equal(t, 1.0, v)
	}
}

// TestRPNMathComplexInterleaved covers the complex variant's interleaved
// real/imaginary layout: "$1,$2,+" over two complex zero-sources must
// still produce interleaved zero pairs without the real-only engine path
// being exercised.
func TestRPNMathComplexInterleaved(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	a, err := pipeline.NewZeroSourceTool(arena, "t", "8")
	require.NoError(t, err)
	b, err := pipeline.NewZeroSourceTool(arena, "t", "8")
	require.NoError(t, err)
	a.Sources[0].Attrs.Define("complex", "true")
	b.Sources[0].Attrs.Define("complex", "true")

	math := pipeline.NewRPNMathTool(arena, []string{"$1", "$2", "+"}, true)
	math.Connect(0, a.Sources[0])
	math.Connect(1, b.Sources[0])
	require.NoError(t, arena.InitAll())

	buf := make([]float64, 16)
	n, err := pipeline.GetChunk(math.Sources[0], 16, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(16), n)
	for _, v := range buf {
		require.Equal(t, 0.0, v)
	}
}

// TestSpecialToolZeroInputs verifies that two zero-sources into the
// special tool yield leading extent 2, with element 0 (RMS) and
// element 1 (best lag) both 0.0.
func TestSpecialToolZeroInputs(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	left, err := pipeline.NewZeroSourceTool(arena, "t", "512")
	require.NoError(t, err)
	right, err := pipeline.NewZeroSourceTool(arena, "t", "512")
	require.NoError(t, err)

	special := pipeline.NewSpecialTool(arena, 512, 4)
	special.SinkByName("left").Connect(left.Sources[0])
	special.SinkByName("right").Connect(right.Sources[0])

	require.NoError(t, arena.InitAll())
	require.Equal(t, int64(2), pipeline.GetSourceDimExtent(special.Sources[0], 't'))

	buf := make([]float64, 2)
	n, err := pipeline.GetChunk(special.Sources[0], 2, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, 0.0, buf[0])
	require.Equal(t, 0.0, buf[1])
}

// TestSpecialToolFindsKnownLag checks the best-lag search itself: a right
// row that is the left row shifted by a known lag should report that lag
// and (near) zero RMS error.
func TestSpecialToolFindsKnownLag(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	const rowLen = 16
	const lag = 3

	left := make([]float64, rowLen)
	for i := range left {
		left[i] = float64(i)
	}
	right := make([]float64, rowLen)
	for i := range right {
		src := i + lag
		if src >= 0 && src < rowLen {
			right[i] = left[src]
		}
	}

	leftTool := constFloatSource(arena, t, "t", rowLen, left)
	rightTool := constFloatSource(arena, t, "t", rowLen, right)

	special := pipeline.NewSpecialTool(arena, rowLen, 5)
	special.SinkByName("left").Connect(leftTool)
	special.SinkByName("right").Connect(rightTool)

	require.NoError(t, arena.InitAll())

	buf := make([]float64, 2)
	n, err := pipeline.GetChunk(special.Sources[0], 2, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.InDelta(t, 0.0, buf[0], 1e-9)
	require.Equal(t, float64(lag), buf[1])
}

// TestBlockMapIdentity verifies the identity-remap invariant: with a nil
// remap and E1/E2 = 10/3 over an upstream extent of 30, output equals input
// element-for-element and the dimension string gains 'u' after 't'.
func TestBlockMapIdentity(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	zero, err := pipeline.NewZeroSourceTool(arena, "xyzt", "4:4:4:30")
	require.NoError(t, err)

	bm := pipeline.NewBlockMapTool(arena, 't', 'u', 10, 3, nil, nil)
	bm.Sinks[0].Connect(zero.Sources[0])

	require.NoError(t, arena.InitAll())

	require.Equal(t, "xyztu", pipeline.GetSourceDims(bm.Sources[0]))
	require.Equal(t, int64(10), pipeline.GetSourceDimExtent(bm.Sources[0], 't'))
	require.Equal(t, int64(3), pipeline.GetSourceDimExtent(bm.Sources[0], 'u'))

	buf := make([]float64, 4*4*4*10*3)
	n, err := pipeline.GetChunk(bm.Sources[0], int64(len(buf)), 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(len(buf)), n)
	for _, v := range buf {
		require.Equal(t, 0.0, v)
	}
}

// TestBlockMapRemapShrinksSize exercises the contract the identity case
// can't: a remap that shrinks the requested size must cause the tool to
// report a short read rather than silently over-reading upstream.
func TestBlockMapRemapShrinksSize(t *testing.T) {
	arena := pipeline.NewArena()
	defer arena.Destroy()

	zero, err := pipeline.NewZeroSourceTool(arena, "t", "30")
	require.NoError(t, err)

	remap := func(size, offset int64) (int64, int64, error) {
		return size / 2, offset, nil
	}
	bm := pipeline.NewBlockMapTool(arena, 't', 'u', 10, 3, nil, remap)
	bm.Sinks[0].Connect(zero.Sources[0])

	require.NoError(t, arena.InitAll())

	buf := make([]float64, 10)
	n, err := pipeline.GetChunk(bm.Sources[0], 10, 0, buf)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
}

// constFloatSource builds an unconnected-upstream, single-dimension
// float64 source backed by a fixed slice, for tests that need non-zero
// fixture data (zero_source only ever returns zeros).
func constFloatSource(arena *pipeline.Arena, tb testing.TB, dim string, extent int64, data []float64) *pipeline.Source {
	tb.Helper()
	t, err := pipeline.NewZeroSourceTool(arena, dim, fmt.Sprintf("%d", extent))
	require.NoError(tb, err)
	src := t.Sources[0]
	src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
		n := int64(len(data)) - offset
		if n > size {
			n = size
		}
		if n <= 0 {
			return 0, nil
		}
		copy(buf[:n], data[offset:offset+n])
		return n, nil
	}
	return src
}
