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

// Package config is the validated, mergeable configuration model behind a
// logger: one Stdout destination plus slices of file and syslog
// destinations, each with its own level filter and formatting flags.
//
// # Inheritance
//
// Options.InheritDefault pulls in a base Options registered via
// RegisterDefaultFunc before applying this instance's own fields.
// LogFileExtend/LogSyslogExtend pick whether the instance's LogFile/LogSyslog
// slices replace the inherited ones or are appended to them; Stdout always
// replaces. Options() resolves inheritance and returns the final, flattened
// configuration; Merge combines two Options in place the same way.
//
// # Validation
//
// Validate runs go-playground/validator over the struct tags and returns a
// liberr.Error aggregating every failure, not just the first. Call it before
// handing Options to the logger constructor.
//
// # Sources
//
// Options fields carry json/yaml/toml/mapstructure tags, so it loads equally
// well from a JSON/YAML file or through spf13/viper. DefaultConfig/
// SetDefaultConfig manage the package-level default used when InheritDefault
// is set but no RegisterDefaultFunc has run.
package config
