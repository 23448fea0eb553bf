/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package vortex

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultAddr = "0.0.0.0"
	DefaultPort = 8080

	DefaultProxyTimeout     = time.Second * 100
	DefaultHttpReadTimeout  = time.Second * 5
	DefaultHttpWriteTimeout = time.Duration(0)
	DefaultHttpIdleTimeout  = time.Second * 60
	DefaultShutdownTimeout  = time.Second * 5

	RoutesSection  = "routes"
	StaticSection  = "static"
	OptionsSection = "options"
)

// Config is the root configuration of a vortex Instance: where to listen, the ordered route table definitions and
// the static directory bindings. A Config is parsed and validated once and must not be modified afterwards.
type Config struct {
	SourceConfig map[string]interface{}

	Addr    net.IP
	Port    int
	Routes  []*RouteConfig
	Statics []*StaticConfig
	Options Options

	enabled bool
}

// NewConfig returns a Config holding every default value, equivalent to parsing an empty document.
func NewConfig() *Config {
	config := &Config{}
	config.Default()
	return config
}

// Default provides defaults for all necessary values
func (config *Config) Default() {
	config.Addr = net.ParseIP(DefaultAddr).To4()
	config.Port = DefaultPort
	config.Options.Default()
}

// Parse parses a configuration map. Values not present in the map keep their defaults. Every error returned is a
// *ConfigError.
func (config *Config) Parse(configMap map[string]interface{}) error {
	config.SourceConfig = configMap
	config.Default()

	if addrVal, ok := configMap["addr"]; ok {
		addrStr, ok := addrVal.(string)
		if !ok {
			return newConfigError("addr", -1, errors.New("must be a string"))
		}

		ip := net.ParseIP(addrStr)
		if ip == nil || ip.To4() == nil {
			return newConfigError("addr", -1, errors.Errorf("[%s] is not an IPv4 address", addrStr))
		}
		config.Addr = ip.To4()
	}

	if portVal, ok := configMap["port"]; ok {
		port, ok := intValue(portVal)
		if !ok {
			return newConfigError("port", -1, errors.New("must be an integer"))
		}
		config.Port = port
	}

	if routesVal, ok := configMap[RoutesSection]; ok && routesVal != nil {
		routeVals, ok := routesVal.([]interface{})
		if !ok {
			return newConfigError(RoutesSection, -1, errors.New("must be an array"))
		}

		for i, routeVal := range routeVals {
			routeMap, ok := routeVal.(map[string]interface{})
			if !ok {
				return newConfigError(RoutesSection, i, errors.New("not a map"))
			}

			route := &RouteConfig{}
			if err := route.Parse(routeMap); err != nil {
				return newConfigError(RoutesSection, i, err)
			}
			config.Routes = append(config.Routes, route)
		}
	}

	if staticVal, ok := configMap[StaticSection]; ok && staticVal != nil {
		staticVals, ok := staticVal.([]interface{})
		if !ok {
			return newConfigError(StaticSection, -1, errors.New("must be an array"))
		}

		for i, val := range staticVals {
			staticMap, ok := val.(map[string]interface{})
			if !ok {
				return newConfigError(StaticSection, i, errors.New("not a map"))
			}

			static := &StaticConfig{}
			if err := static.Parse(staticMap); err != nil {
				return newConfigError(StaticSection, i, err)
			}
			config.Statics = append(config.Statics, static)
		}
	}

	if optionsVal, ok := configMap[OptionsSection]; ok && optionsVal != nil {
		optionsMap, ok := optionsVal.(map[string]interface{})
		if !ok {
			return newConfigError(OptionsSection, -1, errors.New("must be a map"))
		}

		if err := config.Options.Parse(optionsMap); err != nil {
			return newConfigError(OptionsSection, -1, err)
		}
	}

	return nil
}

// Validate checks every value and compiles the route patterns. It must pass before a RouteTable can be built from
// the Config. Every error returned is a *ConfigError.
func (config *Config) Validate() error {
	if config.Addr == nil || config.Addr.To4() == nil {
		return newConfigError("addr", -1, errors.New("an IPv4 address is required"))
	}

	if config.Port < 1 || config.Port > math.MaxUint16 {
		return newConfigError("port", -1, errors.Errorf("invalid port [%d], must be 1-65535", config.Port))
	}

	for i, route := range config.Routes {
		if err := route.Validate(); err != nil {
			return newConfigError(RoutesSection, i, err)
		}
	}

	registry := NewStaticRegistry()
	for i, static := range config.Statics {
		if err := static.Validate(); err != nil {
			return newConfigError(StaticSection, i, err)
		}

		if err := registry.Add(static.Binding()); err != nil {
			return newConfigError(StaticSection, i, err)
		}
	}

	if err := config.Options.Validate(); err != nil {
		return newConfigError(OptionsSection, -1, err)
	}

	config.enabled = true

	return nil
}

// Enabled returns true once Validate has passed.
func (config *Config) Enabled() bool {
	return config.enabled
}

// ListenAddress is the <ip>:<port> the http.Server binds to.
func (config *Config) ListenAddress() string {
	return net.JoinHostPort(config.Addr.String(), strconv.Itoa(config.Port))
}

// Options holds the server and upstream tuning knobs that are not part of the route table itself.
type Options struct {
	TimeoutOptions
	ProxyTimeout    time.Duration
	ShutdownTimeout time.Duration
	Compress        bool
}

// Default provides defaults for all necessary values
func (options *Options) Default() {
	options.TimeoutOptions.Default()
	options.ProxyTimeout = DefaultProxyTimeout
	options.ShutdownTimeout = DefaultShutdownTimeout
	options.Compress = false
}

// Parse parses a configuration map
func (options *Options) Parse(optionsMap map[string]interface{}) error {
	if err := options.TimeoutOptions.Parse(optionsMap); err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	if err := parseDuration(optionsMap, "proxyTimeout", &options.ProxyTimeout); err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	if err := parseDuration(optionsMap, "shutdownTimeout", &options.ShutdownTimeout); err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	if compressVal, ok := optionsMap["compress"]; ok {
		if compress, ok := compressVal.(bool); ok {
			options.Compress = compress
		} else {
			return errors.New("could not use value for compress, not a boolean")
		}
	}

	return nil
}

// Validate validates all settings and return nil or an error
func (options *Options) Validate() error {
	if err := options.TimeoutOptions.Validate(); err != nil {
		return err
	}

	if options.ProxyTimeout <= 0 {
		return fmt.Errorf("value [%s] for proxyTimeout too low, must be positive", options.ProxyTimeout.String())
	}

	if options.ShutdownTimeout <= 0 {
		return fmt.Errorf("value [%s] for shutdownTimeout too low, must be positive", options.ShutdownTimeout.String())
	}

	return nil
}

// TimeoutOptions represents http server timeout options. A zero WriteTimeout disables the write deadline so that
// long running proxied responses are only bounded by the upstream timeout.
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

// Default defaults all HTTP timeout options
func (timeoutOptions *TimeoutOptions) Default() {
	timeoutOptions.WriteTimeout = DefaultHttpWriteTimeout
	timeoutOptions.ReadTimeout = DefaultHttpReadTimeout
	timeoutOptions.IdleTimeout = DefaultHttpIdleTimeout
}

// Parse parses a config map
func (timeoutOptions *TimeoutOptions) Parse(config map[string]interface{}) error {
	if err := parseDuration(config, "readTimeout", &timeoutOptions.ReadTimeout); err != nil {
		return err
	}

	if err := parseDuration(config, "idleTimeout", &timeoutOptions.IdleTimeout); err != nil {
		return err
	}

	return parseDuration(config, "writeTimeout", &timeoutOptions.WriteTimeout)
}

// Validate validates all settings and return nil or an error
func (timeoutOptions *TimeoutOptions) Validate() error {
	if timeoutOptions.WriteTimeout < 0 {
		return fmt.Errorf("value [%s] for writeTimeout too low, must not be negative", timeoutOptions.WriteTimeout.String())
	}

	if timeoutOptions.ReadTimeout <= 0 {
		return fmt.Errorf("value [%s] for readTimeout too low, must be positive", timeoutOptions.ReadTimeout.String())
	}

	if timeoutOptions.IdleTimeout <= 0 {
		return fmt.Errorf("value [%s] for idleTimeout too low, must be positive", timeoutOptions.IdleTimeout.String())
	}

	return nil
}

func parseDuration(config map[string]interface{}, key string, target *time.Duration) error {
	interfaceVal, ok := config[key]
	if !ok {
		return nil
	}

	durationStr, ok := interfaceVal.(string)
	if !ok {
		return fmt.Errorf("could not use value for %s, not a string", key)
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return fmt.Errorf("could not parse %s %s as a duration (e.g. 1m): %v", key, durationStr, err)
	}

	*target = duration
	return nil
}

// intValue accepts the integer shapes produced by the yaml and json decoders.
func intValue(val interface{}) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		if v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}

	return 0, false
}
