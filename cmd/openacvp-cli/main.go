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
	"os"

	"github.com/alecthomas/kong"
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("openacvp-cli"),
		kong.Description("HMAC test vector harness"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Bind CLI to all commands
	bindCLI(&cli)

	if err := ctx.Run(); err != nil {
		cli.errorf("Error: %v\n", err)
		os.Exit(1)
	}
}

// bindCLI binds the CLI instance to all commands
func bindCLI(cli *CLI) {
	cli.Version.CLI = cli
	cli.Exec.CLI = cli
	cli.Run.CLI = cli
	cli.Sample.CLI = cli
	cli.Runs.List.CLI = cli
	cli.Runs.Get.CLI = cli
	cli.Runs.Delete.CLI = cli
	cli.Migrate.Up.CLI = cli
	cli.Health.CLI = cli
	cli.Remote.Exec.CLI = cli
	cli.Remote.Run.CLI = cli
	cli.Remote.Sample.CLI = cli
	cli.Remote.Algorithms.CLI = cli
	cli.Remote.Runs.CLI = cli
	cli.Remote.Get.CLI = cli
}
