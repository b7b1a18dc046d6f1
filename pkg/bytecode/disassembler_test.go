/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDisassembleSimpleChunk checks the basic listing format and, more
// importantly, that each instruction format advances the offset by the right
// amount.
func TestDisassembleSimpleChunk(t *testing.T) {
	chunk := NewChunk()
	constant := chunk.AddConstant(NewValueNumber(1.5))
	chunk.Write(uint8(OpConstant), 10)
	chunk.Write(uint8(constant), 10)
	chunk.Write(uint8(OpNegate), 10)
	chunk.Write(uint8(OpPrint), 11)
	chunk.Write(uint8(OpJump), 12)
	chunk.Write(0, 12)
	chunk.Write(3, 12)

	out := &strings.Builder{}

	offset := DisassembleInstruction(chunk, out, 0)
	assert.Equal(t, 2, offset)
	offset = DisassembleInstruction(chunk, out, offset)
	assert.Equal(t, 3, offset)
	offset = DisassembleInstruction(chunk, out, offset)
	assert.Equal(t, 4, offset)
	offset = DisassembleInstruction(chunk, out, offset)
	assert.Equal(t, 7, offset)

	listing := out.String()
	assert.Contains(t, listing, "CONSTANT")
	assert.Contains(t, listing, "'1.5'")
	assert.Contains(t, listing, "NEGATE")
	assert.Contains(t, listing, "PRINT")
	// Jump targets are resolved in the listing: 4 + 3 + 3 = 10.
	assert.Contains(t, listing, "JUMP")
	assert.Contains(t, listing, "-> 10")

	// Repeated lines show a "|" instead of the line number.
	lines := strings.Split(strings.TrimSuffix(listing, "\n"), "\n")
	require.Equal(t, 4, len(lines))
	assert.Contains(t, lines[0], "  10 ")
	assert.Contains(t, lines[1], "   | ")
	assert.Contains(t, lines[2], "  11 ")
}

// TestDisassembleClosure checks the variable-length OpClosure encoding: the
// disassembler must skip one operand pair per upvalue when advancing.
func TestDisassembleClosure(t *testing.T) {
	interner := NewInterner()

	function := NewFunction()
	function.Name = interner.Intern("inner")
	function.UpvalueCount = 2

	chunk := NewChunk()
	constant := chunk.AddConstant(NewValueFunction(function))
	chunk.Write(uint8(OpClosure), 1)
	chunk.Write(uint8(constant), 1)
	chunk.Write(1, 1) // isLocal
	chunk.Write(3, 1) // index
	chunk.Write(0, 1) // isLocal
	chunk.Write(0, 1) // index

	out := &strings.Builder{}
	offset := DisassembleInstruction(chunk, out, 0)

	assert.Equal(t, 6, offset)
	assert.Contains(t, out.String(), "CLOSURE")
	assert.Contains(t, out.String(), "<fn inner>")
	assert.Contains(t, out.String(), "local 3")
	assert.Contains(t, out.String(), "upvalue 0")
}
