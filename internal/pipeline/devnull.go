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

// DevnullBlockSize is the chunk size used by DevnullTool.Execute to pull
// and discard upstream content, matching the original's 1Mi-element
// blocks.
const DevnullBlockSize = 1024 * 1024

// DevnullTool has one sink and no source. Execute pulls the entire
// upstream content in float32 blocks and discards it; it is the terminal
// consumer used to drive a pull purely for its side effects (or in tests,
// to exercise an upstream chain without writing a dataset).
type DevnullTool struct {
	BaseTool
}

// NewDevnullTool builds an unconnected devnull tool owned by arena.
func NewDevnullTool(arena *Arena) *DevnullTool {
	t := &DevnullTool{}
	t.TypeName = "devnull"
	t.AddSink(NewSink(t))
	arena.Own(t)
	return t
}

// Execute pulls the upstream source dry in fixed-size float32 blocks.
func (t *DevnullTool) Execute() error {
	if err := t.BaseTool.Execute(); err != nil {
		return err
	}
	src := t.Sinks[0].Source
	total := TotalElements(src)
	buf := make([]float32, DevnullBlockSize)
	var offset int64
	for total > 0 {
		n := int64(DevnullBlockSize)
		if total < n {
			n = total
		}
		got, err := GetChunk(src, n, offset, buf[:n])
		if err != nil {
			return err
		}
		if got == 0 {
			break
		}
		total -= got
		offset += got
	}
	return nil
}
