/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package task

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// processSample is the process-level figures sampled into a worker
// heartbeat's note by ScheduleSelfDiagnostics.
type processSample struct {
	cpuPercent float64
	rssBytes   uint64
}

func sampleSelf() (processSample, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return processSample{}, err
	}

	cpu, err := p.Percent(0)
	if err != nil {
		return processSample{}, err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return processSample{}, err
	}

	return processSample{cpuPercent: cpu, rssBytes: mem.RSS}, nil
}

// ScheduleSelfDiagnostics registers a recurring job that samples this
// process's own CPU and RSS usage via gopsutil and records it as a worker
// heartbeat note (spec.md §4.7's "Worker Handle" lastNote field), giving
// operators a queryable process-health line without a separate metrics
// scrape. Returns the RecurringHandle so the caller can Cancel it.
func (m *Manager) ScheduleSelfDiagnostics(interval time.Duration, beat *WorkerHandle) (*RecurringHandle, error) {
	return m.Schedule("self-diagnostics", interval, func() error {
		s, err := sampleSelf()
		if err != nil {
			return err
		}
		if beat != nil {
			beat.Beat()
			beat.Advance(0, fmt.Sprintf("cpu=%.1f%% rss=%dMiB", s.cpuPercent, s.rssBytes/(1<<20)))
		}
		return nil
	}, RecurringOptions{})
}
