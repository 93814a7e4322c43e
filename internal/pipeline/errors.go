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

import "fmt"

// FatalError marks a violation that the original C implementation handled
// by aborting the process (construction errors, structural mismatches at
// init, and callback failures during a pull). There is no recoverable
// path for these: every wrong-shape or wrong-type condition here is a
// programmer error in how the graph was built.
type FatalError struct {
	Tool    string
	Message string
}

func (e *FatalError) Error() string {
	if e.Tool == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// Abort formats a fatal diagnostic and panics with a *FatalError, mirroring
// the original Abort()/pipeAbort() long-jump termination. Callers at the
// top of a run (cmd/mripipes, tests) recover and report it; there is no
// in-pipeline recovery.
func Abort(toolType string, format string, args ...any) {
	panic(&FatalError{Tool: toolType, Message: fmt.Sprintf(format, args...)})
}

// Recover converts a panicking *FatalError into a returned error. Intended
// for use in a deferred call at the boundary that drives a pipeline run.
func Recover(errp *error) {
	if r := recover(); r != nil {
		if fe, ok := r.(*FatalError); ok {
			*errp = fe
			return
		}
		panic(r)
	}
}
