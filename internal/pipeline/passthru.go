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

// PassthruTool forwards every typed accessor call verbatim to its single
// upstream source, copying that source's attributes (minus hash entries)
// onto its own output at Init.
type PassthruTool struct {
	BaseTool
}

// NewPassthruTool builds an unconnected passthru tool owned by arena.
func NewPassthruTool(arena *Arena) *PassthruTool {
	t := &PassthruTool{}
	t.TypeName = "passthru"
	t.AddSink(NewSink(t))
	src := NewSource(t)
	src.GetUint8 = t.getUint8
	src.GetInt16 = t.getInt16
	src.GetInt32 = t.getInt32
	src.GetInt64 = t.getInt64
	src.GetFloat32 = t.getFloat32
	src.GetFloat64 = t.getFloat64
	t.AddSource(src)
	arena.Own(t)
	return t
}

func (t *PassthruTool) upstream() *Source { return t.Sinks[0].Source }

func (t *PassthruTool) getUint8(size, offset int64, buf []uint8) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}
func (t *PassthruTool) getInt16(size, offset int64, buf []int16) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}
func (t *PassthruTool) getInt32(size, offset int64, buf []int32) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}
func (t *PassthruTool) getInt64(size, offset int64, buf []int64) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}
func (t *PassthruTool) getFloat32(size, offset int64, buf []float32) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}
func (t *PassthruTool) getFloat64(size, offset int64, buf []float64) (int64, error) {
	return GetChunk(t.upstream(), size, offset, buf)
}

// Init copies the upstream source's attributes and name onto our output.
func (t *PassthruTool) Init() error {
	if err := t.BaseTool.Init(); err != nil {
		return err
	}
	mySrc := t.Sources[0]
	up := t.upstream()
	CopyUniqueExceptHashes(mySrc.Attrs, up.Attrs)
	mySrc.Name = up.Name
	return nil
}
