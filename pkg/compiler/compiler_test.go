/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/errs"
)

// compileString compiles source with a fresh interner, failing the test on
// compile errors.
func compileString(t *testing.T, source string) *bytecode.Function {
	t.Helper()
	function, err := Compile(source, bytecode.NewInterner())
	require.NoError(t, err)
	return function
}

// collectFunctions returns function and, recursively, every Function found
// in constant pools (nested functions are constants of their enclosing
// chunk).
func collectFunctions(function *bytecode.Function) []*bytecode.Function {
	result := []*bytecode.Function{function}
	for _, constant := range function.Chunk.Constants {
		if constant.IsFunction() {
			result = append(result, collectFunctions(constant.AsFunction())...)
		}
	}
	return result
}

// TestCompileArithmetic checks the exact bytecode emitted for a tiny
// arithmetic program, precedence included.
func TestCompileArithmetic(t *testing.T) {
	function := compileString(t, "print 1 + 2 * 3;")
	chunk := function.Chunk

	expected := []uint8{
		uint8(bytecode.OpConstant), 0,
		uint8(bytecode.OpConstant), 1,
		uint8(bytecode.OpConstant), 2,
		uint8(bytecode.OpMultiply),
		uint8(bytecode.OpAdd),
		uint8(bytecode.OpPrint),
		uint8(bytecode.OpNil),
		uint8(bytecode.OpReturn),
	}
	assert.Equal(t, expected, chunk.Code)

	require.Equal(t, 3, len(chunk.Constants))
	assert.Equal(t, 1.0, chunk.Constants[0].AsNumber())
	assert.Equal(t, 2.0, chunk.Constants[1].AsNumber())
	assert.Equal(t, 3.0, chunk.Constants[2].AsNumber())

	// The top-level script is a nameless function with no parameters.
	assert.Nil(t, function.Name)
	assert.Equal(t, 0, function.Arity)
	assert.Equal(t, 0, function.UpvalueCount)
}

// TestCompileComparisonOperators checks that the complement operators are
// compiled as negations of their counterparts.
func TestCompileComparisonOperators(t *testing.T) {
	function := compileString(t, "1 <= 2;")
	assert.Equal(t, []uint8{
		uint8(bytecode.OpConstant), 0,
		uint8(bytecode.OpConstant), 1,
		uint8(bytecode.OpGreater),
		uint8(bytecode.OpNot),
		uint8(bytecode.OpPop),
		uint8(bytecode.OpNil),
		uint8(bytecode.OpReturn),
	}, function.Chunk.Code)
}

// TestUpvalueCounts checks upvalue resolution through several nesting
// levels: a direct capture in the middle function, a transitive one in the
// innermost.
func TestUpvalueCounts(t *testing.T) {
	function := compileString(t, `
fun outer() {
  var x = 1;
  fun middle() {
    fun inner() {
      print x;
    }
  }
}
`)

	functions := collectFunctions(function)
	require.Equal(t, 4, len(functions))

	byName := map[string]*bytecode.Function{}
	for _, f := range functions {
		if f.Name != nil {
			byName[f.Name.Text] = f
		}
	}
	require.Contains(t, byName, "outer")
	require.Contains(t, byName, "middle")
	require.Contains(t, byName, "inner")

	assert.Equal(t, 0, byName["outer"].UpvalueCount)
	assert.Equal(t, 1, byName["middle"].UpvalueCount)
	assert.Equal(t, 1, byName["inner"].UpvalueCount)
}

// TestUpvalueDeduplication checks that capturing the same variable twice in
// one function produces a single upvalue.
func TestUpvalueDeduplication(t *testing.T) {
	function := compileString(t, `
fun outer() {
  var x = 1;
  fun inner() {
    print x + x;
    x = 2;
  }
}
`)

	functions := collectFunctions(function)
	for _, f := range functions {
		if f.Name != nil && f.Name.Text == "inner" {
			assert.Equal(t, 1, f.UpvalueCount)
			return
		}
	}
	t.Fatal("inner function not found")
}

// instructionWidth returns how many bytes the instruction at offset
// occupies, OpClosure's variable-length encoding included.
func instructionWidth(t *testing.T, chunk *bytecode.Chunk, offset int) int {
	t.Helper()

	op := bytecode.OpCode(chunk.Code[offset])
	switch op {
	case bytecode.OpNil, bytecode.OpTrue, bytecode.OpFalse, bytecode.OpPop,
		bytecode.OpEqual, bytecode.OpGreater, bytecode.OpLess,
		bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide,
		bytecode.OpNot, bytecode.OpNegate, bytecode.OpPrint,
		bytecode.OpCloseUpvalue, bytecode.OpReturn, bytecode.OpInherit:
		return 1
	case bytecode.OpConstant, bytecode.OpGetLocal, bytecode.OpSetLocal,
		bytecode.OpGetGlobal, bytecode.OpDefineGlobal, bytecode.OpSetGlobal,
		bytecode.OpGetUpvalue, bytecode.OpSetUpvalue,
		bytecode.OpGetProperty, bytecode.OpSetProperty, bytecode.OpGetSuper,
		bytecode.OpCall, bytecode.OpClass, bytecode.OpMethod:
		return 2
	case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop,
		bytecode.OpInvoke, bytecode.OpSuperInvoke:
		return 3
	case bytecode.OpClosure:
		function := chunk.Constants[chunk.Code[offset+1]].AsFunction()
		return 2 + 2*function.UpvalueCount
	default:
		t.Fatalf("unknown opcode %d at offset %d", op, offset)
		return 0
	}
}

// TestBytecodeWellFormed walks the full bytecode of a program exercising
// every statement kind and checks the structural invariants: instructions
// never run past the end of the chunk, the lines array stays parallel to the
// code, jump targets land within the chunk, and OpClosure carries exactly
// one operand pair per upvalue.
func TestBytecodeWellFormed(t *testing.T) {
	function := compileString(t, `
var g = 1;
fun adder(n) {
  fun add(m) { return n + m; }
  return add;
}
class Counter {
  init(start) { this.value = start; }
  bump() { this.value = this.value + 1; return this.value; }
}
class Loud < Counter {
  bump() { print "bumping"; return super.bump(); }
}
var c = Loud(10);
for (var i = 0; i < 3; i = i + 1) {
  if (c.bump() > 11 and g < 2 or false) { print c.value; }
}
while (g < 3) { g = g + 1; }
print adder(1)(2);
`)

	for _, f := range collectFunctions(function) {
		chunk := f.Chunk
		require.Equal(t, len(chunk.Code), len(chunk.Lines))

		offset := 0
		for offset < len(chunk.Code) {
			width := instructionWidth(t, chunk, offset)
			require.LessOrEqual(t, offset+width, len(chunk.Code))

			op := bytecode.OpCode(chunk.Code[offset])
			if op == bytecode.OpJump || op == bytecode.OpJumpIfFalse || op == bytecode.OpLoop {
				jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
				target := offset + 3 + jump
				if op == bytecode.OpLoop {
					target = offset + 3 - jump
				}
				assert.GreaterOrEqual(t, target, 0)
				assert.LessOrEqual(t, target, len(chunk.Code))
			}

			offset += width
		}

		// The walk must end exactly at the end of the chunk.
		assert.Equal(t, len(chunk.Code), offset)
	}
}

// TestCompileErrors checks that broken programs are rejected with the
// expected message, at the expected line, with the compile-error exit code.
func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source  string
		line    int
		message string
	}{
		{"print 1 +;", 1, "Expect expression."},
		{"print 1", 1, "Expect ';' after value."},
		{"1 + 2 = 3;", 1, "Invalid assignment target."},
		{"return 1;", 1, "Can't return from top-level code."},
		{"class C {\n  init() { return 1; }\n}", 2, "Can't return a value from an initializer."},
		{"{ var a = a; }", 1, "Can't read local variable in its own initializer."},
		{"{ var a = 1;\n  var a = 2; }", 2, "Already a variable with this name in this scope."},
		{"print this;", 1, "Can't use 'this' outside of a class."},
		{"fun f() { super.g(); }", 1, "Can't use 'super' outside of a class."},
		{"class A { f() { super.f(); } }", 1, "Can't use 'super' in a class with no superclass."},
		{"class A < A {}", 1, "A class can't inherit from itself."},
		{"var s = \"unterminated;", 1, "Unterminated string."},
	}

	for _, test := range tests {
		t.Run(test.message, func(t *testing.T) {
			function, err := Compile(test.source, bytecode.NewInterner())
			require.Error(t, err)
			assert.Nil(t, function)
			assert.Equal(t, errs.StatusCodeCompileTimeError, err.ExitCode())

			collection, ok := err.(*errs.CompileTimeCollection)
			require.True(t, ok)
			require.NotEmpty(t, collection.Errors)
			assert.Contains(t, collection.Errors[0].Message, test.message)
			assert.Equal(t, test.line, collection.Errors[0].Line)
		})
	}
}

// TestCompileErrorFormat checks the rendered error format, including the
// "at end" special case.
func TestCompileErrorFormat(t *testing.T) {
	_, err := Compile("print 1 + 2", bytecode.NewInterner())
	require.Error(t, err)
	assert.Equal(t, "[line 1] Error at end: Expect ';' after value.", err.Error())

	_, err = Compile("1 + 2 = 3;", bytecode.NewInterner())
	require.Error(t, err)
	assert.Equal(t, "[line 1] Error at '=': Invalid assignment target.", err.Error())
}

// TestMultipleErrorsCollected checks that the compiler synchronizes after an
// error and keeps going, reporting later errors too.
func TestMultipleErrorsCollected(t *testing.T) {
	_, err := Compile("var 1;\nreturn 2;\n", bytecode.NewInterner())
	require.Error(t, err)

	collection, ok := err.(*errs.CompileTimeCollection)
	require.True(t, ok)
	require.Equal(t, 2, len(collection.Errors))
	assert.Contains(t, collection.Errors[0].Message, "Expect variable name.")
	assert.Contains(t, collection.Errors[1].Message, "Can't return from top-level code.")
}

// TestTooManyConstants checks the one-byte constant index limit.
func TestTooManyConstants(t *testing.T) {
	source := strings.Builder{}
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&source, "print %d;\n", i)
	}

	_, err := Compile(source.String(), bytecode.NewInterner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many constants in one chunk.")
}

// TestMethodSlotZeroIsThis checks that methods can read `this`: it is just
// local slot zero.
func TestMethodSlotZeroIsThis(t *testing.T) {
	function := compileString(t, `
class C {
  m() { return this; }
}
`)

	functions := collectFunctions(function)
	require.Equal(t, 2, len(functions))
	method := functions[1]
	require.NotNil(t, method.Name)
	require.Equal(t, "m", method.Name.Text)

	// return this; => GetLocal 0, Return, then the implicit return.
	assert.Equal(t, []uint8{
		uint8(bytecode.OpGetLocal), 0,
		uint8(bytecode.OpReturn),
		uint8(bytecode.OpNil),
		uint8(bytecode.OpReturn),
	}, method.Chunk.Code)
}
