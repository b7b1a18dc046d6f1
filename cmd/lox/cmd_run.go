/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"os"

	"github.com/stackedboxes/lox/pkg/errs"
	"github.com/stackedboxes/lox/pkg/vm"
)

// runFile interprets the Lox script at path. The exit code communicates what
// happened: 65 for compile errors, 70 for runtime errors, 74 if the file
// couldn't be read at all.
func runFile(path string) errs.Error {
	source, err := os.ReadFile(path)
	if err != nil {
		return errs.NewTool("Could not open file %q: %v", path, err)
	}

	theVM := vm.New(os.Stdout)
	theVM.DebugTraceExecution = flagTrace
	return theVM.Interpret(string(source))
}
