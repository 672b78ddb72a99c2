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
	"context"
	"fmt"
	"strings"

	"github.com/Gosayram/openacvp/pkg/sdk"
)

// RemoteCmd runs test vectors on a server
type RemoteCmd struct {
	Exec       RemoteExecCmd       `cmd:"" help:"Run one HMAC test case on the server"`
	Run        RemoteRunCmd        `cmd:"" help:"Submit a vector set to the server"`
	Sample     RemoteSampleCmd     `cmd:"" help:"Generate a sample vector set on the server"`
	Algorithms RemoteAlgorithmsCmd `cmd:"" help:"List the server's algorithms"`
	Runs       RemoteRunsCmd       `cmd:"" help:"List runs stored on the server"`
	Get        RemoteGetCmd        `cmd:"" help:"Show a run stored on the server"`
}

// RemoteExecCmd runs one test case on the server
type RemoteExecCmd struct {
	CLI        *CLI `kong:"-"`
	TrialFlags `embed:""`
}

// Run executes the remote exec command
func (e *RemoteExecCmd) Run() error {
	client, err := e.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	resp, err := client.ExecuteHMAC(context.Background(), e.request())
	if err != nil {
		return fmt.Errorf("failed to execute trial: %w", err)
	}

	if err := e.CLI.writeJSON("", resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s", ErrTrialFailed, resp.Code)
	}
	return nil
}

// RemoteRunCmd submits a vector set file
type RemoteRunCmd struct {
	CLI     *CLI   `kong:"-"`
	File    string `arg:"" help:"Vector set JSON file, - for stdin"`
	NoStore bool   `name:"no-store" help:"Do not keep the report on the server"`
	Output  string `name:"output" short:"o" help:"Output file (default: stdout)"`
	Strict  bool   `name:"strict" help:"Exit with an error unless every test case succeeded"`
}

// Run executes the remote run command
func (r *RemoteRunCmd) Run() error {
	data, err := r.CLI.readInput(r.File)
	if err != nil {
		return fmt.Errorf("failed to read vector set: %w", err)
	}

	client, err := r.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := client.SubmitVectorSet(ctx, data, !r.NoStore)
	if err != nil {
		return fmt.Errorf("failed to run vector set: %w", err)
	}

	if report.ID != "" {
		r.CLI.errorf("Stored run %s\n", report.ID)
	}
	if err := r.CLI.writeJSON(r.Output, report.Response); err != nil {
		return err
	}

	if s := report.Summary; s != nil {
		r.CLI.errorf("Total: %d, passed: %d, failed: %d, errors: %d\n", s.Total, s.Passed, s.Failed, s.Errors)
		if r.Strict && (s.Failed > 0 || s.Errors > 0) {
			return fmt.Errorf("%w: %d failed, %d errors", ErrTrialFailed, s.Failed, s.Errors)
		}
	}
	return nil
}

// RemoteSampleCmd asks the server for a sample vector set
type RemoteSampleCmd struct {
	CLI       *CLI   `kong:"-"`
	Algorithm string `name:"algorithm" short:"a" required:"" help:"HMAC algorithm"`
	Groups    int    `name:"groups" default:"2" help:"Number of test groups"`
	Tests     int    `name:"tests" default:"4" help:"Test cases per group"`
	Expected  bool   `name:"expected" help:"Include the expected MACs"`
	Output    string `name:"output" short:"o" help:"Output file (default: stdout)"`
}

// Run executes the remote sample command
func (s *RemoteSampleCmd) Run() error {
	client, err := s.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	vs, err := client.GenerateVectorSet(context.Background(), sdk.GenerateRequest{
		Algorithm:       s.Algorithm,
		Groups:          s.Groups,
		TestsPerGroup:   s.Tests,
		IncludeExpected: s.Expected,
	})
	if err != nil {
		return fmt.Errorf("failed to generate vector set: %w", err)
	}

	return s.CLI.writeJSON(s.Output, vs)
}

// RemoteAlgorithmsCmd lists the server's algorithms
type RemoteAlgorithmsCmd struct {
	CLI *CLI `kong:"-"`
}

// Run executes the remote algorithms command
func (a *RemoteAlgorithmsCmd) Run() error {
	client, err := a.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	algs, err := client.ListAlgorithms(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list algorithms: %w", err)
	}

	_, err = fmt.Fprintln(a.CLI.out(), strings.Join(algs, "\n"))
	return err
}

// RemoteRunsCmd lists runs stored on the server
type RemoteRunsCmd struct {
	CLI *CLI `kong:"-"`
}

// Run executes the remote runs command
func (l *RemoteRunsCmd) Run() error {
	client, err := l.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	runs, err := client.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	return l.CLI.writeJSON("", runs)
}

// RemoteGetCmd shows a run stored on the server
type RemoteGetCmd struct {
	CLI    *CLI   `kong:"-"`
	ID     string `arg:"" required:"" help:"Run ID"`
	Output string `name:"output" short:"o" help:"Output file (default: stdout)"`
}

// Run executes the remote get command
func (g *RemoteGetCmd) Run() error {
	client, err := g.CLI.getClient()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	report, err := client.GetRun(context.Background(), g.ID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	return g.CLI.writeJSON(g.Output, report)
}
