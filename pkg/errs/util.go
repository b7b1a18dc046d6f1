/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

import (
	"fmt"
	"os"
)

// ReportAndExit reports the error err to the end user and exits with the
// appropriate status code. It's fine if err is nil, we handle this case here.
func ReportAndExit(err error) {
	if err == nil {
		os.Exit(StatusCodeSuccess)
	}

	fmt.Fprintln(os.Stderr, err)

	if loxErr, ok := err.(Error); ok {
		os.Exit(loxErr.ExitCode())
	}
	os.Exit(StatusCodeICE)
}
