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

// Package config is a narrowed re-expression of the teacher's component
// registry (config/component.go, config/manage.go): instead of a generic
// plugin system for arbitrary servers, it registers exactly the components
// spec.md §6 lists config keys for -- socket, rate limiter, listener,
// connection, pools, tasks -- each bound to the Settings section a
// spf13/viper instance decodes into.
package config

import (
	"context"

	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	liberr "github/nabbar/nalix/errors"
)

// Component is one independently startable/stoppable/reloadable unit, the
// same three-verb lifecycle the teacher's config.Component interface
// exposes, narrowed to what this server actually needs (no dependency
// graph, no per-component status routes).
type Component interface {
	// Name identifies the component for logging and RegisterComponent's
	// duplicate-name rejection.
	Name() string

	// Start applies the currently loaded Settings and brings the
	// component up. Called once per Manager.Start, in registration order.
	Start(ctx context.Context, s *Settings) error

	// Reload re-applies a changed Settings without a full Stop/Start when
	// the component can do so; a component that cannot hot-reload should
	// restart itself internally and still return nil.
	Reload(ctx context.Context, s *Settings) error

	// Stop brings the component down. Called in reverse registration
	// order during Manager.Stop.
	Stop(ctx context.Context) error

	// IsRunning reports whether Start has completed and Stop has not.
	IsRunning() bool
}

// RegisterFlags is implemented by a Component that also wants to expose
// command-line flags bound into the Manager's viper instance (spec.md §2:
// "flags bound through spf13/cobra/viper the way the teacher's
// RegisterFlag does"). Optional: a Component need not implement it.
type RegisterFlags interface {
	RegisterFlags(cmd *spfcbr.Command, v *spfvpr.Viper) error
}

const (
	ErrorDuplicateComponent liberr.CodeError = iota + liberr.MinPkgConfig
	ErrorComponentStart
	ErrorComponentStop
	ErrorComponentReload
	ErrorLoadConfig
)

func init() {
	liberr.RegisterIdFctMessage(ErrorDuplicateComponent, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorDuplicateComponent:
		return "a component with this name is already registered"
	case ErrorComponentStart:
		return "a component failed to start"
	case ErrorComponentStop:
		return "a component failed to stop"
	case ErrorComponentReload:
		return "a component failed to reload"
	case ErrorLoadConfig:
		return "failed to load or decode the configuration file"
	}
	return ""
}
