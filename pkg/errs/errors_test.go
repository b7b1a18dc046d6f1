/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCompileTimeFormat checks the rendered forms of compile-time errors.
func TestCompileTimeFormat(t *testing.T) {
	err := NewCompileTime(3, "}", "Expect expression.")
	assert.Equal(t, "[line 3] Error at '}': Expect expression.", err.Error())

	err = NewCompileTime(7, "end of file", "Expect ';' after value.")
	assert.Equal(t, "[line 7] Error at end: Expect ';' after value.", err.Error())

	// Scanner errors carry no lexeme; the message stands on its own.
	err = NewCompileTime(2, "", "Unterminated string.")
	assert.Equal(t, "[line 2] Error: Unterminated string.", err.Error())
}

// TestCompileTimeCollection checks the collection plumbing.
func TestCompileTimeCollection(t *testing.T) {
	collection := &CompileTimeCollection{}
	assert.True(t, collection.IsEmpty())

	collection.Add(nil)
	assert.True(t, collection.IsEmpty())

	collection.Add(NewCompileTime(1, "x", "First."))
	collection.Add(NewCompileTime(2, "y", "Second."))
	assert.False(t, collection.IsEmpty())
	assert.Equal(t, "[line 1] Error at 'x': First.\n[line 2] Error at 'y': Second.", collection.Error())
}

// TestExitCodes checks the exit code of each error type against the ones
// the CLI is documented to use.
func TestExitCodes(t *testing.T) {
	assert.Equal(t, 64, NewBadUsage("nope").ExitCode())
	assert.Equal(t, 65, NewCompileTime(1, "", "nope").ExitCode())
	assert.Equal(t, 65, (&CompileTimeCollection{}).ExitCode())
	assert.Equal(t, 70, NewRuntime("nope").ExitCode())
	assert.Equal(t, 74, NewTool("nope").ExitCode())
	assert.Equal(t, 2, NewTestSuite("case", "nope").ExitCode())
	assert.Equal(t, 125, NewICE("nope").ExitCode())
}
