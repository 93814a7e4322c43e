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

// Sink is an input port of a Tool. It holds a reference to at most one
// upstream Source; ownership of the Source remains with its producing
// Tool, so Sink.Source is a back-reference for traversal only.
type Sink struct {
	Owner  Tool
	Name   string
	Source *Source
}

// NewSink returns an unconnected Sink owned by owner.
func NewSink(owner Tool) *Sink {
	return &Sink{Owner: owner}
}

// Connect wires src as this sink's upstream source. Connecting a second
// source to an already-connected sink is a construction error.
func (s *Sink) Connect(src *Source) {
	if src == nil {
		Abort(ownerToolType(s.Owner), "cannot connect a nil source")
	}
	if s.Source != nil {
		Abort(ownerToolType(s.Owner), "sink is already connected to a source")
	}
	s.Source = src
}

func ownerToolType(t Tool) string {
	if t == nil {
		return "sink"
	}
	return t.Base().TypeName
}
