/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

import (
	"fmt"
	"strings"
)

//
// The Error interface
//

// Error is a Lox error.
type Error interface {
	error
	ExitCode() int
}

//
// CompileTime
//

// CompileTime is an error detected by the scanner or the compiler.
type CompileTime struct {
	// Message contains a user-friendly error message.
	Message string

	// Line contains the line number where the error was detected.
	Line int

	// Lexeme contains the lexeme where the error was detected. Empty for
	// errors reported at an Error token (the scanner's message stands on its
	// own), "end of file" for errors at EOF.
	Lexeme string
}

// NewCompileTime is a handy way to create a CompileTime error at some
// specific token.
func NewCompileTime(line int, lexeme, format string, a ...any) *CompileTime {
	return &CompileTime{
		Message: fmt.Sprintf(format, a...),
		Line:    line,
		Lexeme:  lexeme,
	}
}

// Error converts the CompileTime to a string, in the same format the original
// C-family implementations print to stderr: "[line 1] Error at 'x': ...".
// Fulfills the error interface.
func (e *CompileTime) Error() string {
	at := ""
	if e.Lexeme == "end of file" {
		at = " at end"
	} else if e.Lexeme != "" {
		at = fmt.Sprintf(" at '%v'", e.Lexeme)
	}
	return fmt.Sprintf("[line %v] Error%v: %v", e.Line, at, e.Message)
}

// ExitCode fulfills the Error interface.
func (e *CompileTime) ExitCode() int {
	return StatusCodeCompileTimeError
}

//
// CompileTimeCollection
//

// CompileTimeCollection is a collection of CompileTime errors. The compiler
// keeps parsing after an error (synchronizing at statement boundaries), so
// one compile can surface several of these.
type CompileTimeCollection struct {
	// Errors is the collection of CompileTime errors.
	Errors []*CompileTime
}

// Add adds a new error to the collection of errors. A no-op if err is nil.
func (e *CompileTimeCollection) Add(err *CompileTime) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

// IsEmpty checks if this CompileTimeCollection is empty.
func (e *CompileTimeCollection) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Error converts the CompileTimeCollection to a string -- a multiline string
// with one error per line. Fulfills the error interface.
func (e *CompileTimeCollection) Error() string {
	s := strings.Builder{}
	for i, err := range e.Errors {
		if i > 0 {
			s.WriteByte('\n')
		}
		s.WriteString(err.Error())
	}
	return s.String()
}

// ExitCode fulfills the Error interface.
func (e *CompileTimeCollection) ExitCode() int {
	return StatusCodeCompileTimeError
}

//
// Runtime
//

// Runtime is an error raised by the VM while running a program: a type
// mismatch, an undefined variable, a bad arity, a stack overflow. The Message
// already includes the formatted backtrace, one "[line N] in ..." entry per
// active call frame.
type Runtime struct {
	// Message contains a message explaining what happened, followed by the
	// backtrace.
	Message string
}

// NewRuntime is a handy way to create a Runtime error.
func NewRuntime(format string, a ...any) *Runtime {
	return &Runtime{
		Message: fmt.Sprintf(format, a...),
	}
}

// Error converts the Runtime to a string. Fulfills the error interface.
func (e *Runtime) Error() string {
	return e.Message
}

// ExitCode fulfills the Error interface.
func (e *Runtime) ExitCode() int {
	return StatusCodeRuntimeError
}

//
// BadUsage
//

// BadUsage is an error that happened because the lox tool was called in the
// wrong way (like incorrect command-line arguments).
type BadUsage struct {
	// Message contains a message explaining what happened.
	Message string
}

// NewBadUsage is a handy way to create a BadUsage error.
func NewBadUsage(format string, a ...any) *BadUsage {
	return &BadUsage{
		Message: fmt.Sprintf(format, a...),
	}
}

// Error converts the BadUsage to a string. Fulfills the error interface.
func (e *BadUsage) Error() string {
	return e.Message
}

// ExitCode fulfills the Error interface.
func (e *BadUsage) ExitCode() int {
	return StatusCodeBadUsage
}

//
// Tool
//

// Tool is an error that happened when running the lox tool and that doesn't
// fit any of the other error types. Could be, e.g., an error opening a script
// file.
type Tool struct {
	// Message contains a message explaining what went wrong.
	Message string
}

// NewTool is a handy way to create a Tool error.
func NewTool(format string, a ...any) *Tool {
	return &Tool{
		Message: fmt.Sprintf(format, a...),
	}
}

// Error converts the Tool to a string. Fulfills the error interface.
func (e *Tool) Error() string {
	return e.Message
}

// ExitCode fulfills the Error interface.
func (e *Tool) ExitCode() int {
	return StatusCodeToolError
}

//
// TestSuite
//

// TestSuite is an error that happened when running the Lox test suite (i.e.,
// when testing Lox itself).
type TestSuite struct {
	// TestCase contains the path to the test case that failed.
	TestCase string

	// Message contains a message explaining how the test failed.
	Message string
}

// NewTestSuite is a handy way to create a TestSuite error.
func NewTestSuite(testCase, format string, a ...any) *TestSuite {
	return &TestSuite{
		TestCase: testCase,
		Message:  fmt.Sprintf(format, a...),
	}
}

// Error converts the TestSuite to a string. Fulfills the error interface.
func (e *TestSuite) Error() string {
	return fmt.Sprintf("%v: %v", e.TestCase, e.Message)
}

// ExitCode fulfills the Error interface.
func (e *TestSuite) ExitCode() int {
	return StatusCodeTestSuiteError
}

//
// ICE
//

// ICE is an Internal Compiler Error. Used to report some unexpected issue
// with the interpreter itself -- like finding it in a state it wasn't
// expected to be. It's always a bug.
type ICE struct {
	// Message contains some message to contextualize the situation in which
	// the error happened. Hopefully will be good enough to help fixing the
	// bug.
	Message string
}

// NewICE is a handy way to create an ICE.
func NewICE(format string, a ...any) *ICE {
	return &ICE{
		Message: fmt.Sprintf(format, a...),
	}
}

// Error converts the ICE to a string. Fulfills the error interface.
func (e *ICE) Error() string {
	return "Internal Compiler Error: " + e.Message
}

// ExitCode fulfills the Error interface.
func (e *ICE) ExitCode() int {
	return StatusCodeICE
}
