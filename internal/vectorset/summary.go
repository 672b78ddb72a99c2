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

package vectorset

import (
	"github.com/Gosayram/openacvp/internal/executor"
)

// Summary tallies the results of a vector set run. Failed counts tag
// mismatches; Errors counts test cases that could not be executed.
type Summary struct {
	Total  int            `json:"total"`
	Passed int            `json:"passed"`
	Failed int            `json:"failed"`
	Errors int            `json:"errors"`
	ByCode map[string]int `json:"byCode"`
}

// Summarize counts the results in resp
func Summarize(resp *Response) *Summary {
	s := &Summary{ByCode: make(map[string]int)}
	if resp == nil {
		return s
	}

	for _, g := range resp.Groups {
		for _, t := range g.Tests {
			s.Total++

			code := t.Code
			if code == "" {
				code = executor.CodeSuccess.String()
			}
			s.ByCode[code]++

			switch code {
			case executor.CodeSuccess.String():
				s.Passed++
			case executor.CodeMismatch.String():
				s.Failed++
			default:
				s.Errors++
			}
		}
	}
	return s
}

// OK reports whether every test case succeeded
func (s *Summary) OK() bool {
	return s != nil && s.Failed == 0 && s.Errors == 0
}
