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

package config

import (
	"context"
	"sync"

	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
)

// Manager owns a spf13/viper instance and a registration-ordered list of
// Components, the same Start-all/Stop-all-in-reverse/Reload-all shape as
// the teacher's config.Config, narrowed to this server's fixed component
// set (spec.md §6).
type Manager struct {
	mu      sync.Mutex
	viper   *spfvpr.Viper
	names   []string
	byName  map[string]Component
	running bool
	logger  nlxlog.FuncLog
}

// NewManager returns a Manager backed by v. Pass spfvpr.New() for a fresh
// instance, or an existing one already wired to a cobra command's flags.
func NewManager(v *spfvpr.Viper, logger nlxlog.FuncLog) *Manager {
	if v == nil {
		v = spfvpr.New()
	}
	return &Manager{
		viper:  v,
		byName: make(map[string]Component),
		logger: logger,
	}
}

// Viper returns the underlying viper instance, so callers can SetConfigFile/
// AddConfigPath/BindPFlag before Load.
func (m *Manager) Viper() *spfvpr.Viper {
	return m.viper
}

// RegisterComponent adds c to the registry in call order. Start/Reload run
// in this order; Stop runs in reverse.
func (m *Manager) RegisterComponent(c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[c.Name()]; exists {
		return ErrorDuplicateComponent.Error(nil)
	}
	m.byName[c.Name()] = c
	m.names = append(m.names, c.Name())
	return nil
}

// BindFlags calls RegisterFlags on every registered component that
// implements it, the narrowed form of the teacher's per-component
// RegisterFlag hook.
func (m *Manager) BindFlags(cmd *spfcbr.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.names {
		c := m.byName[name]
		if rf, ok := c.(RegisterFlags); ok {
			if err := rf.RegisterFlags(cmd, m.viper); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the configured file (if SetConfigFile/AddConfigPath were
// called) and environment overrides into a fresh Settings value.
func (m *Manager) Load() (*Settings, error) {
	s := DefaultSettings()

	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			if _, ok := err.(spfvpr.ConfigFileNotFoundError); !ok {
				return nil, ErrorLoadConfig.Error(err)
			}
		}
	}

	if err := m.viper.Unmarshal(s); err != nil {
		return nil, ErrorLoadConfig.Error(err)
	}
	return s, nil
}

func (m *Manager) log(lvl loglvl.Level, msg string, err error) {
	if m.logger == nil {
		return
	}
	lg := m.logger()
	if lg == nil {
		return
	}
	e := lg.Entry(lvl, msg)
	if err != nil {
		e = e.ErrorAdd(true, err)
	}
	e.Log()
}

// Start loads Settings and starts every component in registration order,
// stopping and returning the error of the first component that fails
// (spec.md-adjacent to the teacher's "any component error aborts Start").
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.Load()
	if err != nil {
		return err
	}

	for i, name := range m.names {
		c := m.byName[name]
		if err := c.Start(ctx, s); err != nil {
			m.log(loglvl.ErrorLevel, "component failed to start: "+name, err)
			for j := i - 1; j >= 0; j-- {
				_ = m.byName[m.names[j]].Stop(ctx)
			}
			return ErrorComponentStart.Error(err)
		}
		m.log(loglvl.InfoLevel, "component started: "+name, nil)
	}

	m.running = true
	return nil
}

// Stop stops every component in reverse registration order, continuing
// past individual failures so one stuck component cannot block the rest
// (spec.md §5: "graceful shutdown drains independently of per-component
// errors").
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for i := len(m.names) - 1; i >= 0; i-- {
		name := m.names[i]
		if err := m.byName[name].Stop(ctx); err != nil {
			m.log(loglvl.ErrorLevel, "component failed to stop: "+name, err)
			if first == nil {
				first = err
			}
		}
	}

	m.running = false
	if first != nil {
		return ErrorComponentStop.Error(first)
	}
	return nil
}

// Reload reloads the config file and re-applies it to every component.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.Load()
	if err != nil {
		return err
	}

	for _, name := range m.names {
		if err := m.byName[name].Reload(ctx, s); err != nil {
			m.log(loglvl.ErrorLevel, "component failed to reload: "+name, err)
			return ErrorComponentReload.Error(err)
		}
	}
	return nil
}

// IsRunning reports whether Start completed without a subsequent Stop.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
