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

package rpn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToInfixBinaryAndUnary(t *testing.T) {
	infix, err := ToInfix([]string{"$1", "$2", "+", "neg"})
	require.NoError(t, err)
	require.Equal(t, "(-(input(1, 0) + input(2, 0)))", infix)
}

func TestToInfixPassesThroughOperands(t *testing.T) {
	infix, err := ToInfix([]string{"3.5"})
	require.NoError(t, err)
	require.Equal(t, "3.5", infix)
}

func TestToInfixUnderflowErrors(t *testing.T) {
	_, err := ToInfix([]string{"$1", "+"})
	require.Error(t, err)

	_, err = ToInfix([]string{"sqrt"})
	require.Error(t, err)
}

func TestToInfixLeftoverOperandsErrors(t *testing.T) {
	_, err := ToInfix([]string{"$1", "$2"})
	require.Error(t, err)
}

func TestEngineCompileAndRunArithmetic(t *testing.T) {
	e := NewEngine()
	program, err := e.Compile([]string{"$1", "$2", "+", "2", "*"})
	require.NoError(t, err)

	result, err := e.Run(program, map[string]any{
		"input": func(k, rel int) float64 {
			if k == 1 {
				return 3
			}
			return 4
		},
	})
	require.NoError(t, err)
	require.Equal(t, 14.0, result)
}

func TestEngineCompileIsCached(t *testing.T) {
	e := NewEngine()
	tokens := []string{"$1", "sqrt"}
	p1, err := e.Compile(tokens)
	require.NoError(t, err)
	p2, err := e.Compile(tokens)
	require.NoError(t, err)
	require.Same(t, p1, p2)
}

func TestEngineMathHelpers(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		tokens []string
		want   float64
	}{
		{[]string{"2", "3", "pow"}, 8},
		{[]string{"2", "3", "min"}, 2},
		{[]string{"2", "3", "max"}, 3},
		{[]string{"4", "sqrt"}, 2},
		{[]string{"-4", "abs"}, 4},
	}
	for _, c := range cases {
		program, err := e.Compile(c.tokens)
		require.NoError(t, err)
		got, err := e.Run(program, nil)
		require.NoError(t, err)
		require.InDelta(t, c.want, got, 1e-9)
	}
}

func TestEngineMissingTracksConsecutiveReadFailures(t *testing.T) {
	e := NewEngine()
	program, err := e.Compile([]string{"missing(-99, 2)"})
	require.NoError(t, err)

	missingRun := 0
	env := map[string]any{
		"missing": func(z float64, threshold int) float64 {
			if missingRun >= threshold {
				return z
			}
			return 0
		},
	}

	missingRun = 0
	result, err := e.Run(program, env)
	require.NoError(t, err)
	require.Equal(t, 0.0, result)

	missingRun = 2
	result, err = e.Run(program, env)
	require.NoError(t, err)
	require.Equal(t, -99.0, result)
}

func TestEngineRunRejectsNonNumericResult(t *testing.T) {
	e := NewEngine()
	program, err := e.Compile([]string{"\"hi\""})
	require.NoError(t, err)
	_, err = e.Run(program, nil)
	require.Error(t, err)
}
