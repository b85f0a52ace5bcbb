/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package pidcontroller generates a monotonic, non-uniformly spaced sequence
// of float64 values between two bounds using a simple PID-style step law.
// It is used by the duration package to build backoff/jitter schedules that
// approach a target duration gradually rather than in fixed increments.
package pidcontroller

import "context"

// maxSteps bounds how many points RangeCtx can emit, regardless of rates.
const maxSteps = 256

// PID holds the proportional, integral and derivative rates used to compute
// the step size at each iteration.
type PID struct {
	kp, ki, kd float64
}

// New returns a PID configured with the given proportional, integral and
// derivative rates.
func New(rateP, rateI, rateD float64) *PID {
	return &PID{kp: rateP, ki: rateI, kd: rateD}
}

// RangeCtx generates a sequence of values starting at from and approaching
// to, using the PID rates to shrink the remaining error at each step. The
// sequence always starts at from; it stops once to is reached, maxSteps is
// hit, or ctx is done.
func (p *PID) RangeCtx(ctx context.Context, from, to float64) []float64 {
	out := make([]float64, 0, 16)
	out = append(out, from)

	if from == to {
		return out
	}

	dir := 1.0
	if to < from {
		dir = -1.0
	}

	var (
		current   = from
		integral  float64
		prevError float64
	)

	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		remaining := (to - current) * dir
		if remaining <= 0 {
			break
		}

		integral += remaining
		derivative := remaining - prevError
		prevError = remaining

		step := p.kp*remaining + p.ki*integral + p.kd*derivative
		if step <= 0 {
			step = remaining * 0.5
		}

		current += step * dir

		if (dir > 0 && current >= to) || (dir < 0 && current <= to) {
			current = to
			out = append(out, current)
			break
		}

		out = append(out, current)
	}

	return out
}
