/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

const (
	// StatusCodeSuccess indicates a successful execution.
	StatusCodeSuccess = 0

	// StatusCodeTestSuiteError indicates a failure while running Lox's own
	// end-to-end test suite.
	StatusCodeTestSuiteError = 2

	// StatusCodeBadUsage indicates some user error in the usage of the lox
	// tool (e.g., passing too many command-line arguments).
	StatusCodeBadUsage = 64

	// StatusCodeCompileTimeError indicates a compile-time error.
	StatusCodeCompileTimeError = 65

	// StatusCodeRuntimeError indicates a runtime error.
	StatusCodeRuntimeError = 70

	// StatusCodeToolError indicates an I/O-ish error in the lox tool itself,
	// like failing to read the script file.
	StatusCodeToolError = 74

	// StatusCodeICE indicates an Internal Compiler Error.
	StatusCodeICE = 125
)
