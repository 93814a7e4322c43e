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

// Arena is the process-scoped owner of a pipeline graph's tools. It is
// responsible for bulk destruction at teardown; a tool belongs to exactly
// one arena for its lifetime.
type Arena struct {
	tools []Tool
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Own registers t with the arena and returns it, for use in tool
// constructors: `result := arena.Own(&PadTool{...})`.
func (a *Arena) Own(t Tool) Tool {
	t.Base().Arena = a
	a.tools = append(a.tools, t)
	return t
}

// Tools returns every tool owned by the arena, in construction order.
func (a *Arena) Tools() []Tool {
	return a.tools
}

// InitAll calls Init on every owned tool. Init is idempotent and
// recursive, so calling it for every tool (rather than only the roots)
// is always safe and requires no topological sort by the caller.
func (a *Arena) InitAll() error {
	for _, t := range a.tools {
		if err := t.Init(); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteTerminal calls Execute on the single tool t. The arena does not
// work out which of its tools are terminal, so callers identify terminal
// tools themselves (typically the file writers) and pass each one in.
func (a *Arena) ExecuteTerminal(t Tool) error {
	return t.Execute()
}

// Destroy destroys every owned tool and clears the arena.
func (a *Arena) Destroy() {
	for _, t := range a.tools {
		t.Destroy()
	}
	a.tools = nil
}
