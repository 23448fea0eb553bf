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
	"net/http"
	"os"
	"path"
	"strings"
)

// StaticBinding binds a URL prefix to a local directory. File resolution, ranges and MIME detection belong to
// http.FileServer, the binding only decides what is mounted where and whether directories may be listed.
type StaticBinding struct {
	Prefix   string
	Dir      string
	Listings bool
}

func (binding StaticBinding) String() string {
	return fmt.Sprintf("%s -> %s (listings: %v)", binding.Prefix, binding.Dir, binding.Listings)
}

// Matches reports whether path is Prefix itself or lies below it. Whole path segments are compared, so "/files"
// does not cover "/filesystem". A prefix of "/" covers every path.
func (binding StaticBinding) Matches(path string) bool {
	prefix := strings.TrimSuffix(binding.Prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Handler returns a http.Handler serving Dir for requests below Prefix.
func (binding StaticBinding) Handler() http.Handler {
	var fileSystem http.FileSystem = http.Dir(binding.Dir)
	if !binding.Listings {
		fileSystem = noListingFileSystem{fileSystem: fileSystem}
	}

	return http.StripPrefix(strings.TrimSuffix(binding.Prefix, "/"), http.FileServer(fileSystem))
}

// noListingFileSystem hides directories that have no index.html so http.FileServer answers 404 instead of
// rendering a listing.
type noListingFileSystem struct {
	fileSystem http.FileSystem
}

func (nfs noListingFileSystem) Open(name string) (http.File, error) {
	file, err := nfs.fileSystem.Open(name)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if stat.IsDir() {
		index, err := nfs.fileSystem.Open(path.Join(name, "index.html"))
		if err != nil {
			_ = file.Close()
			return nil, os.ErrNotExist
		}
		_ = index.Close()
	}

	return file, nil
}
