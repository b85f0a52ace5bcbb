/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 *
 */

package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

type codedError struct {
	code    uint16
	message string
	parents []Error
	frame   runtime.Frame
}

func (e *codedError) is(err *codedError) bool {
	if e == nil || err == nil {
		return false
	}

	var (
		ss = e.GetTrace()
		sd = err.GetTrace()
		ts = len(ss) > 0
		td = len(sd) > 0
	)

	// XOR Trace Source & Destination != 0
	if (ts || td) && !(ts && td) { // nolint
		return false
	} else if ts && td {
		return strings.EqualFold(ss, sd)
	}

	ss = e.Error()
	sd = err.Error()
	ts = len(ss) > 0
	td = len(sd) > 0

	// XOR Message Source & Destination != 0
	if (ts || td) && !(ts && td) { // nolint
		return false
	} else if ts && td {
		return strings.EqualFold(ss, sd)
	}

	var (
		cs = e.Code()
		cd = err.Code()
	)

	ts = cs > 0
	td = cd > 0

	// XOR Message Source & Destination != 0
	if (ts || td) && !(ts && td) { // nolint
		return false
	} else if ts && td {
		return cs == cd
	}

	return false
}

func (e *codedError) Is(err error) bool {
	if err == nil {
		return false
	}

	if er, ok := err.(*codedError); ok {
		return e.is(er)
	} else {
		return e.IsError(err)
	}
}

func (e *codedError) Add(parent ...error) {
	for _, v := range parent {
		if v == nil {
			continue
		}

		var (
			ok  bool
			er  *codedError
			err Error
		)

		if er, ok = v.(*codedError); ok {
			// prevent circular addition
			if e.IsError(er) {
				for _, erp := range er.p {
					e.Add(erp)
				}
			} else {
				e.parents = append(e.parents, er)
			}
		} else if err, ok = v.(Error); !ok {
			e.parents = append(e.parents, &codedError{
				code:    0,
				message: v.Error(),
				parents: nil,
			})
		} else {
			e.parents = append(e.parents, err)
		}
	}
}

func (e *codedError) IsCode(code CodeError) bool {
	return e.code == code.Uint16()
}

func (e *codedError) IsError(err error) bool {
	return strings.EqualFold(e.message, err.Error())
}

func (e *codedError) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}

	for _, p := range e.parents {
		if p.HasCode(code) {
			return true
		}
	}

	return false
}

func (e *codedError) GetCode() CodeError {
	return CodeError(e.code)
}

func (e *codedError) GetParentCode() []CodeError {
	var res = make([]CodeError, 0)

	res = append(res, e.GetCode())
	for _, p := range e.parents {
		res = append(res, p.GetParentCode()...)
	}

	return unicCodeSlice(res)
}

func (e *codedError) HasError(err error) bool {
	if e.IsError(err) {
		return true
	}

	for _, p := range e.parents {
		if p.IsError(err) {
			return true
		} else if p.HasError(err) {
			return true
		}
	}

	return false
}

func (e *codedError) HasParent() bool {
	return len(e.parents) > 0
}

func (e *codedError) GetParent(withMainError bool) []error {
	var res = make([]error, 0)

	if withMainError {
		res = append(res, &codedError{
			code:    e.code,
			message: e.message,
			parents: nil,
			frame:   e.frame,
		})
	}

	if len(e.parents) > 0 {
		for _, er := range e.parents {
			res = append(res, er.GetParent(true)...)
		}
	}

	return res
}

func (e *codedError) SetParent(parent ...error) {
	e.parents = make([]Error, 0)
	e.Add(parent...)
}

func (e *codedError) Map(fct FuncMap) bool {
	if !fct(e) {
		return false
	} else if len(e.parents) > 0 {
		for _, er := range e.parents {
			if !er.Map(fct) {
				return false
			}
		}
	}

	return true
}

func (e *codedError) ContainsString(s string) bool {
	if strings.Contains(e.message, s) {
		return true
	} else {
		for _, i := range e.parents {
			if i.ContainsString(s) {
				return true
			}
		}
	}

	return false
}

func (e *codedError) Code() uint16 {
	return e.code
}

func (e *codedError) CodeSlice() []uint16 {
	var r = []uint16{e.Code()}

	for _, v := range e.parents {
		if v.Code() > 0 {
			r = append(r, v.Code())
		}
	}

	return r
}

func (e *codedError) Error() string {
	return modeError.error(e)
}

func (e *codedError) StringError() string {
	return e.message
}

func (e *codedError) StringErrorSlice() []string {
	var r = []string{e.StringError()}

	for _, v := range e.parents {
		r = append(r, v.Error())
	}

	return r
}

func (e *codedError) GetError() error {
	//nolint goerr113
	return errors.New(e.message)
}

func (e *codedError) GetErrorSlice() []error {
	var r = []error{e.GetError()}

	if len(e.parents) < 1 {
		return r
	}

	for _, v := range e.parents {
		if v == nil {
			continue
		}

		r = append(r, v.GetErrorSlice()...)
	}

	return r
}

func (e *codedError) Unwrap() []error {
	if len(e.parents) < 1 {
		return nil
	}

	var r = make([]error, 0)

	for _, v := range e.parents {
		if v == nil {
			continue
		}

		r = append(r, v)
	}

	return r
}

func (e *codedError) GetTrace() string {
	if e.frame.File != "" {
		return fmt.Sprintf("%s#%d", filterPath(e.frame.File), e.frame.Line)
	} else if e.frame.Function != "" {
		return fmt.Sprintf("%s#%d", e.frame.Function, e.frame.Line)
	}

	return ""
}

func (e *codedError) GetTraceSlice() []string {
	var r = []string{e.GetTrace()}

	for _, v := range e.parents {
		if t := v.GetTrace(); t != "" {
			r = append(r, v.GetTrace())
		}
	}

	return r
}

func (e *codedError) CodeError(pattern string) string {
	if pattern == "" {
		pattern = defaultPattern
	}
	return fmt.Sprintf(pattern, e.Code(), e.StringError())
}

func (e *codedError) CodeErrorSlice(pattern string) []string {
	var r = []string{e.CodeError(pattern)}

	for _, v := range e.parents {
		r = append(r, v.CodeError(pattern))
	}

	return r
}

func (e *codedError) CodeErrorTrace(pattern string) string {
	if pattern == "" {
		pattern = defaultPatternTrace
	}

	return fmt.Sprintf(pattern, e.Code(), e.StringError(), e.GetTrace())
}

func (e *codedError) CodeErrorTraceSlice(pattern string) []string {
	var r = []string{e.CodeErrorTrace(pattern)}

	for _, v := range e.parents {
		r = append(r, v.CodeErrorTrace(pattern))
	}

	return r
}

func (e *codedError) Return(r Return) {
	e.ReturnError(r.SetError)
	e.ReturnParent(r.AddParent)
}

func (e *codedError) ReturnError(f ReturnError) {
	if e.frame.File != "" {
		f(int(e.code), e.message, e.frame.File, e.frame.Line)
	} else {
		f(int(e.code), e.message, e.frame.Function, e.frame.Line)
	}
}

func (e *codedError) ReturnParent(f ReturnError) {
	for _, p := range e.parents {
		p.ReturnError(f)
		p.ReturnParent(f)
	}
}
