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

// Package rpn compiles postfix ("reverse Polish") token scripts, as used
// by the RPN math tool, into expr-lang programs and runs them against a
// per-sample environment.
package rpn

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// arity of the operators recognized while converting a postfix token
// stream to infix. Anything not listed here is treated as an operand and
// passed through to the infix expression verbatim, which is what lets
// tokens like "input(2,-1)" or "missing(0,4)" ride through untouched:
// they are already valid expr-lang call expressions.
var binaryOps = map[string]string{
	"+":   "(%s + %s)",
	"-":   "(%s - %s)",
	"*":   "(%s * %s)",
	"/":   "(%s / %s)",
	"%":   "(%s %% %s)",
	"pow": "pow(%s, %s)",
	"min": "min(%s, %s)",
	"max": "max(%s, %s)",
}

var unaryOps = map[string]string{
	"neg":  "(-%s)",
	"sqrt": "sqrt(%s)",
	"abs":  "abs(%s)",
	"sin":  "sin(%s)",
	"cos":  "cos(%s)",
	"tan":  "tan(%s)",
	"exp":  "exp(%s)",
	"log":  "log(%s)",
}

// Engine compiles RPN scripts to expr-lang programs and caches them by
// script. Each RPN math tool creates its own Engine, so the cache is
// per tool.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
	env   map[string]any
}

// NewEngine returns an Engine whose env supplies the math helper
// functions referenced by unaryOps/binaryOps (pow, min, max, sqrt, and
// the trig/exp/log family) in addition to whatever the caller merges in
// at Run time (input, missing, and named sink values).
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]*vm.Program),
		env:   defaultEnv(),
	}
}

func defaultEnv() map[string]any {
	return map[string]any{
		"pow":  mathPow,
		"min":  mathMin,
		"max":  mathMax,
		"sqrt": mathSqrt,
		"abs":  mathAbs,
		"sin":  mathSin,
		"cos":  mathCos,
		"tan":  mathTan,
		"exp":  mathExp,
		"log":  mathLog,
	}
}

// ToInfix converts a postfix token script into an expr-lang expression
// string. Tokens beginning with "$" are shorthand for input(k, 0), where
// k is the digits following the "$".
func ToInfix(tokens []string) (string, error) {
	var stack []string
	for _, tok := range tokens {
		if fmtStr, ok := binaryOps[tok]; ok {
			if len(stack) < 2 {
				return "", fmt.Errorf("rpn: operator %q needs 2 operands, stack has %d", tok, len(stack))
			}
			rhs := stack[len(stack)-1]
			lhs := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, fmt.Sprintf(fmtStr, lhs, rhs))
			continue
		}
		if fmtStr, ok := unaryOps[tok]; ok {
			if len(stack) < 1 {
				return "", fmt.Errorf("rpn: operator %q needs 1 operand, stack has %d", tok, len(stack))
			}
			arg := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, fmt.Sprintf(fmtStr, arg))
			continue
		}
		if strings.HasPrefix(tok, "$") {
			stack = append(stack, fmt.Sprintf("input(%s, 0)", tok[1:]))
			continue
		}
		stack = append(stack, tok)
	}
	if len(stack) != 1 {
		return "", fmt.Errorf("rpn: script left %d values on the stack, want 1", len(stack))
	}
	return stack[0], nil
}

// Compile converts postfix tokens to infix and compiles the result,
// caching the compiled program under the original token sequence's
// joined form so repeated compiles of the same script are free.
func (e *Engine) Compile(tokens []string) (*vm.Program, error) {
	key := strings.Join(tokens, " ")

	e.mu.RLock()
	if p, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	infix, err := ToInfix(tokens)
	if err != nil {
		return nil, err
	}

	program, err := expr.Compile(infix, expr.Env(e.env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("rpn: compiling %q: %w", infix, err)
	}

	e.mu.Lock()
	e.cache[key] = program
	e.mu.Unlock()
	return program, nil
}

// Run executes a compiled program against a per-sample environment. The
// caller is expected to merge in "input" and "missing" closures bound to
// the current output offset before calling Run.
func (e *Engine) Run(program *vm.Program, sampleEnv map[string]any) (float64, error) {
	merged := make(map[string]any, len(e.env)+len(sampleEnv))
	for k, v := range e.env {
		merged[k] = v
	}
	for k, v := range sampleEnv {
		merged[k] = v
	}
	result, err := expr.Run(program, merged)
	if err != nil {
		return 0, fmt.Errorf("rpn: evaluating: %w", err)
	}
	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("rpn: expression produced %T, want a number", result)
	}
}
