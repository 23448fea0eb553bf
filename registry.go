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

	"github.com/sirupsen/logrus"
)

// StaticRegistry describes an ordered registry of StaticBinding's keyed by URL prefix
type StaticRegistry interface {
	Add(binding StaticBinding) error
	Get(prefix string) *StaticBinding
	Bindings() []StaticBinding
}

// StaticRegistryMap is a basic StaticRegistry implementation that keeps declaration order
type StaticRegistryMap struct {
	bindings []StaticBinding
	prefixes map[string]int
}

var _ StaticRegistry = &StaticRegistryMap{}

// NewStaticRegistry creates a new StaticRegistryMap
func NewStaticRegistry() *StaticRegistryMap {
	return &StaticRegistryMap{
		prefixes: map[string]int{},
	}
}

// Add adds a binding to the registry. Errors if a previous binding with the same prefix is registered.
func (registry *StaticRegistryMap) Add(binding StaticBinding) error {
	logrus.Debugf("adding static binding: %v", binding)
	if existing, ok := registry.prefixes[binding.Prefix]; ok {
		return fmt.Errorf("duplicate static route [%s] detected for both [%s] and [%s]", binding.Prefix, registry.bindings[existing].Dir, binding.Dir)
	}

	registry.prefixes[binding.Prefix] = len(registry.bindings)
	registry.bindings = append(registry.bindings, binding)

	return nil
}

// Get retrieves a binding by prefix or nil if no binding for the prefix is registered
func (registry *StaticRegistryMap) Get(prefix string) *StaticBinding {
	if idx, ok := registry.prefixes[prefix]; ok {
		binding := registry.bindings[idx]
		return &binding
	}
	return nil
}

// Bindings returns a copy of the registered bindings in the order they were added
func (registry *StaticRegistryMap) Bindings() []StaticBinding {
	result := make([]StaticBinding, len(registry.bindings))
	copy(result, registry.bindings)
	return result
}
