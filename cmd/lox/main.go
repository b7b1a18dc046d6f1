/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"github.com/stackedboxes/lox/pkg/errs"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(errs.Error); !ok {
			// Errors coming from cobra itself (unknown flags and the like)
			// are usage errors.
			err = errs.NewBadUsage("%v", err)
		}
		errs.ReportAndExit(err)
	}
}
