/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// This file would normally be called cmd_dev_test.go, but that name would
// make the Go tooling believe it contains tests.

package main

import (
	"github.com/spf13/cobra"
	"github.com/stackedboxes/lox/pkg/test"
)

var devTestCmd = &cobra.Command{
	Use:   "test <suite-path>",
	Short: "Run the Lox end-to-end test suite",
	Long: `Run the end-to-end test suite at the given path. Every test.toml file
found under it (recursively) defines one test case.`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return test.ExecuteSuite(args[0])
	},
}
