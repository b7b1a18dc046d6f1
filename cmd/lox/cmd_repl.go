/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/stackedboxes/lox/pkg/errs"
	"github.com/stackedboxes/lox/pkg/vm"
)

// repl runs the read-eval-print loop: one line at a time against a single
// long-lived VM, so globals defined on one line are visible on the next.
// Errors are reported and the loop keeps going.
func repl() errs.Error {
	rl, err := readline.New("> ")
	if err != nil {
		return errs.NewTool("initializing the line reader: %v", err)
	}
	defer rl.Close()

	theVM := vm.New(os.Stdout)
	theVM.DebugTraceExecution = flagTrace

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// ^C discards the line, like shells do.
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return errs.NewTool("reading input: %v", err)
		}

		if interpErr := theVM.Interpret(line); interpErr != nil {
			fmt.Fprintln(os.Stderr, interpErr)
		}
	}
}
