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
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gosayram/openacvp/internal/executor"
	"github.com/Gosayram/openacvp/internal/logging"
	"github.com/Gosayram/openacvp/internal/metrics"
	"github.com/Gosayram/openacvp/internal/pool"
	"github.com/Gosayram/openacvp/internal/testcase"
)

// Vector set outcomes used as metric labels
const (
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Runner executes every test case of a vector set with bounded concurrency.
// A failing test case never stops the rest of the set.
type Runner struct {
	executor    *executor.Executor
	logger      *logging.Logger
	concurrency int
	tags        *pool.Pool[*testcase.TagBuffer]
}

// NewRunner creates a runner. Concurrency below one means GOMAXPROCS.
func NewRunner(exec *executor.Executor, logger *logging.Logger, concurrency int) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Runner{
		executor:    exec,
		logger:      logger,
		concurrency: concurrency,
		tags:        pool.New(testcase.NewTagBuffer),
	}
}

// Run executes vs and returns the response, in input order, together with
// a summary. The only errors are an invalid vector set and ctx cancellation.
func (r *Runner) Run(ctx context.Context, vs *VectorSet) (*Response, *Summary, error) {
	if vs == nil {
		return nil, nil, fmt.Errorf("%w: nil vector set", ErrInvalidVectorSet)
	}
	if err := vs.Validate(); err != nil {
		return nil, nil, err
	}

	alg, err := testcase.ParseAlgorithm(vs.Algorithm)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidVectorSet, err)
	}

	logger := r.logger.ForVectorSet(vs.ID, vs.Algorithm)
	start := time.Now()
	logger.Debug("running vector set", zap.Int("groups", len(vs.Groups)), zap.Int("tests", vs.Count()))

	resp := &Response{
		ID:        vs.ID,
		Algorithm: vs.Algorithm,
		Revision:  vs.Revision,
		Groups:    make([]GroupResponse, len(vs.Groups)),
	}
	for i, g := range vs.Groups {
		resp.Groups[i] = GroupResponse{ID: g.ID, Tests: make([]TestResponse, len(g.Tests))}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

dispatch:
	for gi := range vs.Groups {
		group := &vs.Groups[gi]
		for ti := range group.Tests {
			if gctx.Err() != nil {
				break dispatch
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				resp.Groups[gi].Tests[ti] = r.runTest(gctx, logger, alg, group, &group.Tests[ti])
				return nil
			})
		}
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		metrics.RecordVectorSet(StatusCancelled)
		logger.Warn("vector set cancelled", zap.Error(err))
		return nil, nil, fmt.Errorf("vector set %d: %w", vs.ID, err)
	}

	summary := Summarize(resp)
	status := StatusPassed
	if summary.Failed > 0 || summary.Errors > 0 {
		status = StatusFailed
	}
	metrics.RecordVectorSet(status)

	logger.Info("vector set processed",
		zap.String("status", status),
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, summary, nil
}

// RunTest executes a single test case outside of a vector set, as for an
// ad hoc request. Group supplies the declared lengths.
func (r *Runner) RunTest(ctx context.Context, alg testcase.Algorithm, g *Group, t *Test) TestResponse {
	return r.runTest(ctx, r.logger.WithFields(zap.Stringer("algorithm", alg)), alg, g, t)
}

func (r *Runner) runTest(ctx context.Context, logger *logging.Logger, alg testcase.Algorithm, g *Group, t *Test) TestResponse {
	res := TestResponse{ID: t.ID}
	start := time.Now()

	err := r.trial(ctx, alg, g, t, &res)
	code := executor.CodeOf(err)
	metrics.RecordTrial(alg.String(), code.String(), time.Since(start).Seconds())

	if err != nil {
		res.Code = code.String()
		res.Error = err.Error()

		trialLogger := logger.ForTrial(g.ID, t.ID)
		if code == executor.CodeMismatch {
			trialLogger.Debug("tag mismatch", zap.Error(err))
		} else {
			trialLogger.Warn("trial failed", zap.Stringer("code", code), zap.Error(err))
		}
	}
	return res
}

func (r *Runner) trial(ctx context.Context, alg testcase.Algorithm, g *Group, t *Test, res *TestResponse) error {
	tc, err := testcase.New(testcase.Params{
		Algorithm: alg,
		KeyHex:    t.Key,
		KeyBits:   g.KeyBits,
		MsgHex:    t.Msg,
		MsgBits:   g.MsgBits,
		MACBits:   g.MACBits,
	})
	if err != nil {
		return err
	}
	defer tc.Release()

	tag := r.tags.Get()
	defer r.tags.Put(tag)
	tc.Tag = tag

	if err := r.executor.Execute(ctx, tc); err != nil {
		return err
	}
	res.MAC = testcase.EncodeHex(tc.Tag.Bytes())

	if t.MAC == "" {
		return nil
	}

	expected, err := testcase.DecodeField(&t.MAC, testcase.MACMaxBytes)
	if err != nil {
		return fmt.Errorf("expected mac: %w", err)
	}

	err = executor.Compare(tc, expected.Bytes())
	passed := err == nil
	res.Passed = &passed
	return err
}
