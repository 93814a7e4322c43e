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
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/jwelling/mripipes/internal/dataset"
)

// FileOutputBlockSize is the round-robin write granularity across live
// sinks, matching DevnullBlockSize's 1Mi-element convention.
const FileOutputBlockSize = 1024 * 1024

// FileOutputTool has one source-less tail sink at construction and grows
// as Connect is called, exactly like RPNMathTool: connecting the current
// last sink appends a fresh unconnected one so callers can keep wiring
// without pre-declaring an arity. At Init each live sink takes the name
// of its upstream source (when that source has one), and that name keys
// its chunk. A sink named "orphans" (such as one fed by a FileInputTool's
// orphans source) is special-cased to write its source's attributes at
// the dataset's top level instead of creating a chunk.
type FileOutputTool struct {
	BaseTool
	store dataset.Store
}

// NewFileOutputTool builds a file-output tool writing into store.
func NewFileOutputTool(arena *Arena, store dataset.Store) *FileOutputTool {
	t := &FileOutputTool{store: store}
	t.TypeName = "file_output"
	tail := NewSink(t)
	tail.Name = "sink1"
	t.AddSink(tail)
	arena.Own(t)
	return t
}

// Connect wires src onto sink idx (0-based), growing the sink list as
// needed, and returns that sink. Init renames the sink after its upstream
// source when that source has a name, so a name the caller gives the
// sink is kept only for an unnamed source.
func (t *FileOutputTool) Connect(idx int, src *Source) *Sink {
	for len(t.Sinks) <= idx {
		s := NewSink(t)
		s.Name = fmt.Sprintf("sink%d", len(t.Sinks)+1)
		t.AddSink(s)
	}
	t.Sinks[idx].Connect(src)
	if idx == len(t.Sinks)-1 {
		s := NewSink(t)
		s.Name = fmt.Sprintf("sink%d", len(t.Sinks)+1)
		t.AddSink(s)
	}
	return t.Sinks[idx]
}

// Init trims the trailing unconnected sink, names every live sink after
// its upstream source and, for every non-orphans sink, declares its chunk
// in the store and mirrors its source attributes as "<sourceName>.<attr>"
// scalar keys so a subsequent FileInputTool reading the same store
// recovers the same source set.
func (t *FileOutputTool) Init() error {
	if n := len(t.Sinks); n > 0 && t.Sinks[n-1].Source == nil {
		t.Sinks = t.Sinks[:n-1]
	}
	if err := t.BaseTool.Init(); err != nil {
		return err
	}

	ctx := context.Background()
	for _, s := range t.Sinks {
		if s.Source.Name != "" {
			s.Name = s.Source.Name
		}
		if s.Name == "orphans" {
			continue
		}
		src := s.Source
		dt := GetSourceDataType(src)
		total := TotalElements(src)
		if err := t.store.CreateChunk(ctx, s.Name, total, dt.ElemSize()); err != nil {
			return err
		}
		var attrErr error
		src.Attrs.Iterate(func(key, value string) {
			if attrErr != nil {
				return
			}
			attrErr = t.store.SetString(ctx, s.Name+"."+key, value)
		})
		if attrErr != nil {
			return attrErr
		}
	}
	return nil
}

// Execute pulls every live sink dry in round-robin FileOutputBlockSize
// blocks, writing non-orphans sinks as chunks and flushing the orphans
// sink's attributes as top-level scalar keys.
func (t *FileOutputTool) Execute() error {
	if err := t.BaseTool.Execute(); err != nil {
		return err
	}

	ctx := context.Background()
	type live struct {
		sink      *Sink
		remaining int64
		offset    int64
	}
	var rows []*live
	for _, s := range t.Sinks {
		if s.Name == "orphans" {
			var err error
			s.Source.Attrs.Iterate(func(key, value string) {
				if err != nil {
					return
				}
				err = t.store.SetString(ctx, key, value)
			})
			if err != nil {
				return err
			}
			continue
		}
		rows = append(rows, &live{sink: s, remaining: TotalElements(s.Source)})
	}

	for {
		anyWork := false
		for _, row := range rows {
			if row.remaining <= 0 {
				continue
			}
			anyWork = true
			n := int64(FileOutputBlockSize)
			if row.remaining < n {
				n = row.remaining
			}
			got, err := writeOneBlock(t.store, row.sink, row.offset, n)
			if err != nil {
				return err
			}
			row.offset += got
			row.remaining -= got
			if got == 0 {
				row.remaining = 0
			}
		}
		if !anyWork {
			break
		}
	}
	return nil
}

// Destroy closes the output store, which flushes any writes the store
// buffers, then drops the tool's ports.
func (t *FileOutputTool) Destroy() {
	if t.store != nil {
		t.store.Close()
	}
	t.BaseTool.Destroy()
}

func writeOneBlock(store dataset.Store, sink *Sink, offset, n int64) (int64, error) {
	dt := GetSourceDataType(sink.Source)
	switch dt {
	case Uint8:
		buf := make([]uint8, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	case Int16:
		buf := make([]int16, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	case Int32:
		buf := make([]int32, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	case Int64:
		buf := make([]int64, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	case Float32:
		buf := make([]float32, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	default:
		buf := make([]float64, n)
		got, err := GetChunk(sink.Source, n, offset, buf)
		if err != nil {
			return 0, err
		}
		return got, writeTypedChunk(store, sink.Name, offset, buf[:got])
	}
}

// writeTypedChunk is the write-side counterpart to readTypedChunk: it
// encodes buf with encoding/binary and hands the bytes to the store.
func writeTypedChunk[T Element](store dataset.Store, key string, offset int64, buf []T) error {
	w := new(bytes.Buffer)
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return err
	}
	return store.WriteChunk(context.Background(), key, offset, int64(len(buf)), w.Bytes())
}
