/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/compiler"
	"github.com/stackedboxes/lox/pkg/errs"
)

var devDisassembleCmd = &cobra.Command{
	Use:   "disassemble <lox-file>",
	Short: "Compile a Lox source file, print the bytecode",
	Long: `Compile a Lox source file and print a disassembly of the resulting
bytecode: the top-level script and every function it contains,
recursively.`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return errs.NewTool("Could not open file %q: %v", args[0], err)
		}

		function, compErr := compiler.Compile(string(source), bytecode.NewInterner())
		if compErr != nil {
			return compErr
		}

		disassembleFunction(function)
		return nil
	},
}

// disassembleFunction disassembles function and, recursively, every function
// stored in its constant pool (nested functions are constants of the
// enclosing chunk).
func disassembleFunction(function *bytecode.Function) {
	name := "<script>"
	if function.Name != nil {
		name = function.Name.Text
	}
	bytecode.DisassembleChunk(function.Chunk, os.Stdout, name)

	for _, constant := range function.Chunk.Constants {
		if constant.IsFunction() {
			disassembleFunction(constant.AsFunction())
		}
	}
}
