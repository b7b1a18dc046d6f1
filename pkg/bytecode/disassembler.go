/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

import (
	"fmt"
	"io"
)

// DisassembleChunk disassembles a whole chunk, writing the output to out.
// name is used as a header for the listing.
func DisassembleChunk(chunk *Chunk, out io.Writer, name string) {
	fmt.Fprintf(out, "== %v ==\n", name)

	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(chunk, out, offset)
	}
}

// DisassembleInstruction disassembles the instruction at a given offset of
// chunk and returns the offset of the next instruction. Output is written to
// out.
func DisassembleInstruction(chunk *Chunk, out io.Writer, offset int) int {
	// Offset
	fmt.Fprintf(out, "%04d ", offset)

	// Source line
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprintf(out, "   | ")
	} else {
		fmt.Fprintf(out, "%4d ", chunk.Lines[offset])
	}

	// Instruction
	instruction := OpCode(chunk.Code[offset])

	switch instruction {
	case OpConstant:
		return constantInstruction(chunk, out, "CONSTANT", offset)
	case OpNil:
		return simpleInstruction(out, "NIL", offset)
	case OpTrue:
		return simpleInstruction(out, "TRUE", offset)
	case OpFalse:
		return simpleInstruction(out, "FALSE", offset)
	case OpPop:
		return simpleInstruction(out, "POP", offset)
	case OpGetLocal:
		return byteInstruction(chunk, out, "GET_LOCAL", offset)
	case OpSetLocal:
		return byteInstruction(chunk, out, "SET_LOCAL", offset)
	case OpGetGlobal:
		return constantInstruction(chunk, out, "GET_GLOBAL", offset)
	case OpDefineGlobal:
		return constantInstruction(chunk, out, "DEFINE_GLOBAL", offset)
	case OpSetGlobal:
		return constantInstruction(chunk, out, "SET_GLOBAL", offset)
	case OpGetUpvalue:
		return byteInstruction(chunk, out, "GET_UPVALUE", offset)
	case OpSetUpvalue:
		return byteInstruction(chunk, out, "SET_UPVALUE", offset)
	case OpGetProperty:
		return constantInstruction(chunk, out, "GET_PROPERTY", offset)
	case OpSetProperty:
		return constantInstruction(chunk, out, "SET_PROPERTY", offset)
	case OpGetSuper:
		return constantInstruction(chunk, out, "GET_SUPER", offset)
	case OpEqual:
		return simpleInstruction(out, "EQUAL", offset)
	case OpGreater:
		return simpleInstruction(out, "GREATER", offset)
	case OpLess:
		return simpleInstruction(out, "LESS", offset)
	case OpAdd:
		return simpleInstruction(out, "ADD", offset)
	case OpSubtract:
		return simpleInstruction(out, "SUBTRACT", offset)
	case OpMultiply:
		return simpleInstruction(out, "MULTIPLY", offset)
	case OpDivide:
		return simpleInstruction(out, "DIVIDE", offset)
	case OpNot:
		return simpleInstruction(out, "NOT", offset)
	case OpNegate:
		return simpleInstruction(out, "NEGATE", offset)
	case OpPrint:
		return simpleInstruction(out, "PRINT", offset)
	case OpJump:
		return jumpInstruction(chunk, out, "JUMP", 1, offset)
	case OpJumpIfFalse:
		return jumpInstruction(chunk, out, "JUMP_IF_FALSE", 1, offset)
	case OpLoop:
		return jumpInstruction(chunk, out, "LOOP", -1, offset)
	case OpCall:
		return byteInstruction(chunk, out, "CALL", offset)
	case OpInvoke:
		return invokeInstruction(chunk, out, "INVOKE", offset)
	case OpSuperInvoke:
		return invokeInstruction(chunk, out, "SUPER_INVOKE", offset)
	case OpClosure:
		return closureInstruction(chunk, out, offset)
	case OpCloseUpvalue:
		return simpleInstruction(out, "CLOSE_UPVALUE", offset)
	case OpReturn:
		return simpleInstruction(out, "RETURN", offset)
	case OpClass:
		return constantInstruction(chunk, out, "CLASS", offset)
	case OpInherit:
		return simpleInstruction(out, "INHERIT", offset)
	case OpMethod:
		return constantInstruction(chunk, out, "METHOD", offset)
	default:
		fmt.Fprintf(out, "Unknown opcode %d\n", instruction)
		return offset + 1
	}
}

// simpleInstruction disassembles a simple instruction (a single byte, just
// the opcode) at a given offset. name is the instruction name. Returns the
// offset of the next instruction.
func simpleInstruction(out io.Writer, name string, offset int) int {
	fmt.Fprintf(out, "%v\n", name)
	return offset + 1
}

// byteInstruction disassembles an instruction with a single one-byte operand
// (a stack slot, an upvalue index, or an argument count).
func byteInstruction(chunk *Chunk, out io.Writer, name string, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(out, "%-16s %4d\n", name, slot)
	return offset + 2
}

// constantInstruction disassembles an instruction whose operand is a
// constant pool index.
func constantInstruction(chunk *Chunk, out io.Writer, name string, offset int) int {
	index := chunk.Code[offset+1]
	fmt.Fprintf(out, "%-16s %4d '%v'\n", name, index, chunk.Constants[index])
	return offset + 2
}

// jumpInstruction disassembles a jump or loop instruction, showing the
// resolved target. sign is +1 for forward jumps and -1 for OpLoop.
func jumpInstruction(chunk *Chunk, out io.Writer, name string, sign int, offset int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(out, "%-16s %4d -> %d\n", name, offset, offset+3+sign*jump)
	return offset + 3
}

// invokeInstruction disassembles OpInvoke and OpSuperInvoke, which carry a
// method name constant and an argument count.
func invokeInstruction(chunk *Chunk, out io.Writer, name string, offset int) int {
	index := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(out, "%-16s (%d args) %4d '%v'\n", name, argCount, index, chunk.Constants[index])
	return offset + 3
}

// closureInstruction disassembles OpClosure, whose encoding is
// variable-length: the constant index of the Function is followed by one
// (isLocal, index) byte pair per upvalue the function captures.
func closureInstruction(chunk *Chunk, out io.Writer, offset int) int {
	offset++
	constant := chunk.Code[offset]
	offset++
	fmt.Fprintf(out, "%-16s %4d %v\n", "CLOSURE", constant, chunk.Constants[constant])

	function := chunk.Constants[constant].AsFunction()
	for i := 0; i < function.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		index := chunk.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(out, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}

	return offset
}
