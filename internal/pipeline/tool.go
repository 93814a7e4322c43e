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

// Tool is a node in the pipeline graph: it has sinks (inputs), sources
// (outputs), and the three lifecycle hooks. Every tool traverses
// Unconnected -> Connected -> Initialized -> Executed -> Destroyed exactly
// once; Init is idempotent under repeated invocation.
type Tool interface {
	// Init propagates metadata and validates structure. Called once, in
	// topological order from leaves toward roots; safe to call more than
	// once. BaseTool.Init walks upstream only on its first call; a
	// concrete tool's own Init body runs again on each call and
	// recomputes the same metadata.
	Init() error

	// Execute drives a pull to completion. Only called on terminal tools
	// (those with no outbound source).
	Execute() error

	// Destroy releases private state, sources, and sinks.
	Destroy()

	// Base returns the embedded BaseTool, giving package-level helpers
	// uniform access to sinks/sources/flags regardless of concrete type.
	Base() *BaseTool
}

// BaseTool holds the fields and default behavior common to every tool:
// its ports, diagnostic flags, and a type name used in diagnostics.
// Concrete tool types embed BaseTool and call its Init/Execute/Destroy
// explicitly from their own overrides, exactly as the original code calls
// baseToolInit/baseToolExecute/baseToolDestroySelf at the top of a custom
// hook.
type BaseTool struct {
	Arena    *Arena
	Sinks    []*Sink
	Sources  []*Source
	TypeName string
	Verbose  bool
	Debug    bool

	initialized bool
	executed    bool
}

// Base implements Tool.Base for any type embedding BaseTool.
func (b *BaseTool) Base() *BaseTool { return b }

// AddSink appends a new sink to the tool.
func (b *BaseTool) AddSink(s *Sink) { b.Sinks = append(b.Sinks, s) }

// AddSource appends a new source to the tool.
func (b *BaseTool) AddSource(s *Source) { b.Sources = append(b.Sources, s) }

// SinkByName returns the first sink with the given name, or nil.
func (b *BaseTool) SinkByName(name string) *Sink {
	for _, s := range b.Sinks {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Init is the default lifecycle hook: it recursively initializes the tool
// upstream of each connected sink, guarding against re-entry. Tools with
// no sinks (sources, zero-fill generators) or no metadata to propagate
// (devnull, file-input) use this default unmodified; everything else
// embeds it and calls BaseTool.Init() first from its own override.
func (b *BaseTool) Init() error {
	if b.initialized {
		return nil
	}
	b.initialized = true
	for _, s := range b.Sinks {
		if s.Source != nil {
			if err := s.Source.Owner.Init(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Execute is the default lifecycle hook: it recursively executes the
// tool upstream of each connected sink. Only terminal tools are ever
// called directly by a run driver, but an intermediate tool's own Execute
// (if it has one) must still reach further upstream terminal-adjacent
// consumers via this helper in the rare case a graph chains executors.
func (b *BaseTool) Execute() error {
	if b.executed {
		return nil
	}
	b.executed = true
	for _, s := range b.Sinks {
		if s.Source != nil {
			if err := s.Source.Owner.Execute(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Destroy is the default lifecycle hook: it drops references to sources
// and sinks. Concrete types with private buffers or open handles embed
// this and free their own state first.
func (b *BaseTool) Destroy() {
	b.Sources = nil
	b.Sinks = nil
}
