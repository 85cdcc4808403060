// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/commands"
	"github.com/pegasus-robotics/pegasus/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root(commands.DefaultEnvironment()).Execute(context.Background(), os.Args[1:])
}
