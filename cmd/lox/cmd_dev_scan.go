/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackedboxes/lox/pkg/errs"
	"github.com/stackedboxes/lox/pkg/frontend"
)

var devScanCmd = &cobra.Command{
	Use:   "scan <lox-file>",
	Short: "Scan a Lox source file, print the tokens",
	Long:  `Scan a Lox source file, printing all the tokens to stdout.`,
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return errs.NewTool("Could not open file %q: %v", args[0], err)
		}

		scanner := frontend.NewScanner(string(source))
		for {
			tok := scanner.Token()
			fmt.Printf("%4d %-24v %q\n", tok.Line, tok.Kind, tok.Lexeme)
			if tok.Kind == frontend.TokenKindEOF {
				return nil
			}
		}
	},
}
