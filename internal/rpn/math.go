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

import "math"

func mathPow(a, b float64) float64 { return math.Pow(a, b) }
func mathMin(a, b float64) float64 { return math.Min(a, b) }
func mathMax(a, b float64) float64 { return math.Max(a, b) }
func mathSqrt(a float64) float64   { return math.Sqrt(a) }
func mathAbs(a float64) float64    { return math.Abs(a) }
func mathSin(a float64) float64    { return math.Sin(a) }
func mathCos(a float64) float64    { return math.Cos(a) }
func mathTan(a float64) float64    { return math.Tan(a) }
func mathExp(a float64) float64    { return math.Exp(a) }
func mathLog(a float64) float64    { return math.Log(a) }
