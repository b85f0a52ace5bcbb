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

import "time"

// SocketSettings binds spec.md §6's "socket" config section.
type SocketSettings struct {
	Address         string        `mapstructure:"address" yaml:"address" toml:"address"`
	Backlog         int           `mapstructure:"backlog" yaml:"backlog" toml:"backlog"`
	ReuseAddress    bool          `mapstructure:"reuse_address" yaml:"reuse_address" toml:"reuse_address"`
	MaxAccepts      int           `mapstructure:"max_simultaneous_accepts" yaml:"max_simultaneous_accepts" toml:"max_simultaneous_accepts"`
	NoDelay         bool          `mapstructure:"no_delay" yaml:"no_delay" toml:"no_delay"`
	KeepAlive       time.Duration `mapstructure:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size" yaml:"read_buffer_size" toml:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size" yaml:"write_buffer_size" toml:"write_buffer_size"`
}

// RateLimitSettings binds spec.md §6's "ratelimit" config section.
type RateLimitSettings struct {
	Window        time.Duration `mapstructure:"window" yaml:"window" toml:"window"`
	MaxRequests   int           `mapstructure:"max_requests" yaml:"max_requests" toml:"max_requests"`
	Lockout       time.Duration `mapstructure:"lockout" yaml:"lockout" toml:"lockout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval" toml:"sweep_interval"`
	SweepMaxIdle  time.Duration `mapstructure:"sweep_max_idle" yaml:"sweep_max_idle" toml:"sweep_max_idle"`
}

// ListenerSettings binds spec.md §6's "listener" section: dispatch sizing
// that sits above the raw socket.
type ListenerSettings struct {
	ChannelCapacity      int           `mapstructure:"channel_capacity" yaml:"channel_capacity" toml:"channel_capacity"`
	ChannelPolicy        string        `mapstructure:"channel_policy" yaml:"channel_policy" toml:"channel_policy"`
	DispatchWorkers      int           `mapstructure:"dispatch_workers" yaml:"dispatch_workers" toml:"dispatch_workers"`
	AcceptBackoffInitial time.Duration `mapstructure:"accept_backoff_initial" yaml:"accept_backoff_initial" toml:"accept_backoff_initial"`
	AcceptBackoffMax     time.Duration `mapstructure:"accept_backoff_max" yaml:"accept_backoff_max" toml:"accept_backoff_max"`
}

// ConnectionSettings binds spec.md §6's "connection" section.
type ConnectionSettings struct {
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
	SendTimeout    time.Duration `mapstructure:"send_timeout" yaml:"send_timeout" toml:"send_timeout"`
	SendQueueDepth int           `mapstructure:"send_queue_depth" yaml:"send_queue_depth" toml:"send_queue_depth"`
	MaxFrameSize   int           `mapstructure:"max_frame_size" yaml:"max_frame_size" toml:"max_frame_size"`
	MaxPerAddress  int           `mapstructure:"max_per_address" yaml:"max_per_address" toml:"max_per_address"`
}

// PoolSettings binds spec.md §6's "pools" section: the buffer pool's size
// classes and per-class retention.
type PoolSettings struct {
	SizeClasses     []int `mapstructure:"size_classes" yaml:"size_classes" toml:"size_classes"`
	InitialPerClass int   `mapstructure:"initial_per_class" yaml:"initial_per_class" toml:"initial_per_class"`
	MaxPerClass     int   `mapstructure:"max_per_class" yaml:"max_per_class" toml:"max_per_class"`
}

// TaskSettings binds spec.md §6's "tasks" section.
type TaskSettings struct {
	MachineID uint16 `mapstructure:"machine_id" yaml:"machine_id" toml:"machine_id"`
}

// Settings is the full decoded configuration tree, the unmarshal target for
// a spf13/viper instance (spec.md §2's "viper-backed configuration" ambient
// requirement).
type Settings struct {
	Socket     SocketSettings     `mapstructure:"socket" yaml:"socket" toml:"socket"`
	RateLimit  RateLimitSettings  `mapstructure:"ratelimit" yaml:"ratelimit" toml:"ratelimit"`
	Listener   ListenerSettings   `mapstructure:"listener" yaml:"listener" toml:"listener"`
	Connection ConnectionSettings `mapstructure:"connection" yaml:"connection" toml:"connection"`
	Pools      PoolSettings       `mapstructure:"pools" yaml:"pools" toml:"pools"`
	Tasks      TaskSettings       `mapstructure:"tasks" yaml:"tasks" toml:"tasks"`
}

// DefaultSettings returns the settings this server runs with absent any
// config file or flag override.
func DefaultSettings() *Settings {
	return &Settings{
		Socket: SocketSettings{
			Address:      ":9000",
			Backlog:      1024,
			ReuseAddress: true,
			MaxAccepts:   1024,
			NoDelay:      true,
			KeepAlive:    30 * time.Second,
		},
		RateLimit: RateLimitSettings{
			Window:        time.Second,
			MaxRequests:   50,
			Lockout:       10 * time.Second,
			SweepInterval: time.Minute,
			SweepMaxIdle:  10 * time.Minute,
		},
		Listener: ListenerSettings{
			ChannelCapacity:      4096,
			ChannelPolicy:        "drop",
			DispatchWorkers:      8,
			AcceptBackoffInitial: 10 * time.Millisecond,
			AcceptBackoffMax:     time.Second,
		},
		Connection: ConnectionSettings{
			IdleTimeout:    2 * time.Minute,
			SendTimeout:    5 * time.Second,
			SendQueueDepth: 128,
			MaxFrameSize:   0xFFFF,
			MaxPerAddress:  16,
		},
		Pools: PoolSettings{
			SizeClasses:     []int{256, 1024, 4096, 16384},
			InitialPerClass: 32,
			MaxPerClass:     4096,
		},
		Tasks: TaskSettings{
			MachineID: 1,
		},
	}
}
