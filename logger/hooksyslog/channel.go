/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package hooksyslog

// closeStruct and closeByte are pre-closed sentinels returned by Done/Data
// once the hook has never started or has been closed.
var (
	closeStruct = make(chan struct{})
	closeByte   = make(chan []data, 250)
)

func init() {
	close(closeStruct)
	close(closeByte)
}

// prepareChan allocates the data/done channels; called by Run before the
// background writer goroutine starts.
func (o *hks) prepareChan() {
	o.d.Store(make(chan []data, 250))
	o.s.Store(make(chan struct{}))
}

func (o *hks) Done() <-chan struct{} {
	c := o.s.Load()

	if c != nil {
		return c.(chan struct{})
	}

	return closeStruct
}

func (o *hks) Data() <-chan []data {
	c := o.d.Load()

	if c != nil {
		return c.(chan []data)
	}

	return closeByte
}
