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
	"os"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var envReference = regexp.MustCompile(`\$\{([^{}]+)\}`)

// ExpandEnv replaces every ${NAME} in body with the value of the environment variable NAME. A reference to a
// variable that is unset or empty is an error.
func ExpandEnv(body []byte) ([]byte, error) {
	var missing []string

	expanded := envReference.ReplaceAllFunc(body, func(match []byte) []byte {
		name := string(envReference.FindSubmatch(match)[1])
		value := os.Getenv(name)
		if value == "" {
			missing = append(missing, name)
			return match
		}
		return []byte(value)
	})

	if len(missing) > 0 {
		return nil, errors.Errorf("environment variables %v are not set", missing)
	}

	return expanded, nil
}

// ParseConfigMap expands environment references and decodes a yaml document into a configuration map.
func ParseConfigMap(body []byte) (map[string]interface{}, error) {
	expanded, err := ExpandEnv(body)
	if err != nil {
		return nil, err
	}

	configMap := map[string]interface{}{}
	if err = yaml.Unmarshal(expanded, &configMap); err != nil {
		return nil, errors.Wrap(err, "error parsing yaml")
	}

	return configMap, nil
}

// LoadConfigFile reads and parses a configuration file. The returned Config has not been validated, so callers may
// still add to it (e.g. a static binding requested on the command line) before calling Validate.
func LoadConfigFile(path string) (*Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file [%s]", path)
	}

	configMap, err := ParseConfigMap(body)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading config file [%s]", path)
	}

	config := &Config{}
	if err = config.Parse(configMap); err != nil {
		return nil, err
	}

	return config, nil
}
