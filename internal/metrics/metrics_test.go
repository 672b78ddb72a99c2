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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTrial(t *testing.T) {
	before := testutil.ToFloat64(TrialsTotal.WithLabelValues("HMAC-SHA-1", "MISSING_INPUT"))

	RecordTrial("HMAC-SHA-1", "MISSING_INPUT", 0.0001)
	RecordTrial("HMAC-SHA-1", "MISSING_INPUT", 0.0002)

	after := testutil.ToFloat64(TrialsTotal.WithLabelValues("HMAC-SHA-1", "MISSING_INPUT"))
	assert.InDelta(t, 2, after-before, 0.001)
}

func TestRecordVectorSet(t *testing.T) {
	before := testutil.ToFloat64(VectorSetsTotal.WithLabelValues("completed"))
	RecordVectorSet("completed")
	assert.InDelta(t, 1, testutil.ToFloat64(VectorSetsTotal.WithLabelValues("completed"))-before, 0.001)
}

func TestRecordErrorAndOperation(t *testing.T) {
	before := testutil.ToFloat64(ErrorRate.WithLabelValues("POST_hmac", "client_error"))
	RecordError("POST_hmac", "client_error")
	assert.InDelta(t, 1, testutil.ToFloat64(ErrorRate.WithLabelValues("POST_hmac", "client_error"))-before, 0.001)

	before = testutil.ToFloat64(OperationTotal.WithLabelValues("health_check", "success"))
	RecordOperation("health_check", "success", 0.01)
	assert.InDelta(t, 1, testutil.ToFloat64(OperationTotal.WithLabelValues("health_check", "success"))-before, 0.001)
}
