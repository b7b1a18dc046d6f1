/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"github.com/spf13/cobra"
	"github.com/stackedboxes/lox/pkg/errs"
)

// flagTrace is for the flag --trace.
var flagTrace bool

var rootCmd = &cobra.Command{
	Use:           "lox [script]",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "Lox is a small dynamically-typed scripting language",
	Long: `A bytecode interpreter for the Lox programming language: a small,
dynamically-typed, class-based scripting language. Run it without
arguments for a REPL, or pass a script file to execute it.`,
	Args: cobra.ArbitraryArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			return repl()
		case 1:
			return runFile(args[0])
		default:
			return errs.NewBadUsage("Usage: lox [script]")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagTrace, "trace", false,
		"Trace the execution, disassembling each instruction as it runs")

	devCmd.AddCommand(devScanCmd, devDisassembleCmd, devTestCmd)
	rootCmd.AddCommand(devCmd)
}
