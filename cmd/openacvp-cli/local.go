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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Gosayram/openacvp/internal/cryptoengine"
	"github.com/Gosayram/openacvp/internal/executor"
	"github.com/Gosayram/openacvp/internal/resultstore"
	"github.com/Gosayram/openacvp/internal/testcase"
	"github.com/Gosayram/openacvp/internal/vectorset"
	"github.com/Gosayram/openacvp/pkg/sdk"
)

// ErrTrialFailed is returned when a trial or vector set did not succeed
var ErrTrialFailed = errors.New("trial failed")

// TrialFlags are the inputs of a single test case. Key and message are
// hex; leaving one out is different from passing an empty string.
type TrialFlags struct {
	Algorithm string  `name:"algorithm" short:"a" required:"" help:"HMAC algorithm, e.g. HMAC-SHA2-256"`
	Key       *string `name:"key" short:"k" help:"Key (hex)"`
	KeyLen    *int    `name:"key-len" help:"Declared key length in bits (default: hex length)"`
	Msg       *string `name:"msg" short:"m" help:"Message (hex)"`
	MsgLen    *int    `name:"msg-len" help:"Declared message length in bits (default: hex length)"`
	MACLen    int     `name:"mac-len" help:"MAC length in bits, 0 for the full digest"`
	MAC       string  `name:"mac" help:"Expected MAC (hex) to verify against"`
}

func (f TrialFlags) request() sdk.HMACRequest {
	return sdk.HMACRequest{
		Algorithm: f.Algorithm,
		Key:       f.Key,
		KeyLen:    f.KeyLen,
		Msg:       f.Msg,
		MsgLen:    f.MsgLen,
		MACLen:    f.MACLen,
		MAC:       f.MAC,
	}
}

func bitsOrHexLen(bits *int, hex *string) int {
	if bits != nil {
		return *bits
	}
	if hex != nil {
		return len(*hex) * 4
	}
	return 0
}

func newRunner(cli *CLI, concurrency int) *vectorset.Runner {
	return vectorset.NewRunner(executor.New(cryptoengine.NewEngine()), cli.logger(), concurrency)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ExecCmd runs one test case in process
type ExecCmd struct {
	CLI        *CLI `kong:"-"`
	TrialFlags `embed:""`
}

// Run executes the exec command
func (e *ExecCmd) Run() error {
	alg, err := testcase.ParseAlgorithm(e.Algorithm)
	if err != nil {
		return err
	}

	runner := newRunner(e.CLI, 1)
	res := runner.RunTest(context.Background(), alg, &vectorset.Group{
		KeyBits: bitsOrHexLen(e.KeyLen, e.Key),
		MsgBits: bitsOrHexLen(e.MsgLen, e.Msg),
		MACBits: e.MACLen,
	}, &vectorset.Test{Key: e.Key, Msg: e.Msg, MAC: e.MAC})

	out := sdk.HMACResponse{
		Algorithm: alg.String(),
		Code:      executor.CodeSuccess.String(),
		MAC:       res.MAC,
		Passed:    res.Passed,
		Error:     res.Error,
	}
	if res.Code != "" {
		out.Code = res.Code
	}

	if err := e.CLI.writeJSON("", out); err != nil {
		return err
	}
	if !out.OK() {
		return fmt.Errorf("%w: %s", ErrTrialFailed, out.Code)
	}
	return nil
}

// RunCmd runs a vector set file in process
type RunCmd struct {
	CLI         *CLI         `kong:"-"`
	File        string       `arg:"" help:"Vector set JSON file, - for stdin"`
	Concurrency int          `name:"concurrency" short:"c" help:"Test cases run in parallel (default: GOMAXPROCS)"`
	Output      string       `name:"output" short:"o" help:"Output file (default: stdout)"`
	Store       bool         `name:"store" help:"Save the report in storage"`
	Strict      bool         `name:"strict" help:"Exit with an error unless every test case succeeded"`
	Storage     StorageFlags `embed:"" prefix:"storage-"`
}

// Run executes the run command
func (r *RunCmd) Run() error {
	data, err := r.CLI.readInput(r.File)
	if err != nil {
		return fmt.Errorf("failed to read vector set: %w", err)
	}

	vs, err := vectorset.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := newRunner(r.CLI, r.Concurrency)
	resp, summary, err := runner.Run(ctx, vs)
	if err != nil {
		return err
	}

	if r.Store {
		store, closeStore, err := r.Storage.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		report := resultstore.NewReport(resp, summary)
		if err := store.Save(ctx, report); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
		r.CLI.errorf("Stored run %s\n", report.ID)
	}

	if err := r.CLI.writeJSON(r.Output, resp); err != nil {
		return err
	}

	r.CLI.errorf("Total: %d, passed: %d, failed: %d, errors: %d\n",
		summary.Total, summary.Passed, summary.Failed, summary.Errors)
	if r.Strict && !summary.OK() {
		return fmt.Errorf("%w: %d failed, %d errors", ErrTrialFailed, summary.Failed, summary.Errors)
	}
	return nil
}

// SampleCmd generates a vector set with random inputs
type SampleCmd struct {
	CLI       *CLI   `kong:"-"`
	Algorithm string `name:"algorithm" short:"a" required:"" help:"HMAC algorithm"`
	Groups    int    `name:"groups" default:"2" help:"Number of test groups"`
	Tests     int    `name:"tests" default:"4" help:"Test cases per group"`
	Expected  bool   `name:"expected" help:"Include the expected MACs"`
	Output    string `name:"output" short:"o" help:"Output file (default: stdout)"`
}

// Run executes the sample command
func (s *SampleCmd) Run() error {
	alg, err := testcase.ParseAlgorithm(s.Algorithm)
	if err != nil {
		return err
	}

	vs, err := vectorset.Generate(context.Background(), cryptoengine.NewEngine(), alg, s.Groups, s.Tests)
	if err != nil {
		return err
	}
	if !s.Expected {
		vs = vectorset.StripExpected(vs)
	}

	return s.CLI.writeJSON(s.Output, vs)
}

// RunsCmd inspects stored runs
type RunsCmd struct {
	List   ListRunsCmd  `cmd:"" help:"List stored runs"`
	Get    GetRunCmd    `cmd:"" help:"Show a stored run"`
	Delete DeleteRunCmd `cmd:"" help:"Delete a stored run"`
}

// ListRunsCmd lists stored runs
type ListRunsCmd struct {
	CLI     *CLI         `kong:"-"`
	Storage StorageFlags `embed:"" prefix:"storage-"`
}

// Run executes the runs list command
func (l *ListRunsCmd) Run() error {
	ctx := context.Background()
	store, closeStore, err := l.Storage.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := store.List(ctx)
	if err != nil {
		return err
	}

	return printRuns(l.CLI, runs)
}

func printRuns(cli *CLI, runs []resultstore.Info) error {
	tw := tabwriter.NewWriter(cli.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tVS\tALGORITHM\tPASSED\tFAILED\tERRORS")
	for _, run := range runs {
		var passed, failed, errs int
		if run.Summary != nil {
			passed, failed, errs = run.Summary.Passed, run.Summary.Failed, run.Summary.Errors
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%d\n",
			run.ID, run.CreatedAt.Format(time.RFC3339), run.VectorSetID, run.Algorithm, passed, failed, errs)
	}
	return tw.Flush()
}

// GetRunCmd shows a stored run
type GetRunCmd struct {
	CLI     *CLI         `kong:"-"`
	ID      string       `arg:"" required:"" help:"Run ID"`
	Output  string       `name:"output" short:"o" help:"Output file (default: stdout)"`
	Storage StorageFlags `embed:"" prefix:"storage-"`
}

// Run executes the runs get command
func (g *GetRunCmd) Run() error {
	ctx := context.Background()
	store, closeStore, err := g.Storage.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := store.Get(ctx, g.ID)
	if err != nil {
		return err
	}

	return g.CLI.writeJSON(g.Output, report)
}

// DeleteRunCmd deletes a stored run
type DeleteRunCmd struct {
	CLI     *CLI         `kong:"-"`
	ID      string       `arg:"" required:"" help:"Run ID"`
	Storage StorageFlags `embed:"" prefix:"storage-"`
}

// Run executes the runs delete command
func (d *DeleteRunCmd) Run() error {
	ctx := context.Background()
	store, closeStore, err := d.Storage.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Delete(ctx, d.ID); err != nil {
		return err
	}

	_, err = fmt.Fprintf(d.CLI.out(), "Run %s deleted\n", d.ID)
	return err
}
