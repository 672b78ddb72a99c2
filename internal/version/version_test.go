// Copyright 2025 Gosayram Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"runtime"
	"testing"
)

func TestInfo(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	info := Info()

	if info["version"] != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", info["version"])
	}
	if info["go"] != runtime.Version() {
		t.Errorf("go = %q, want %q", info["go"], runtime.Version())
	}
	for _, k := range []string{"commit", "date"} {
		if info[k] == "" {
			t.Errorf("%s is empty", k)
		}
	}
}
