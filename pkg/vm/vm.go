/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/compiler"
	"github.com/stackedboxes/lox/pkg/errs"
)

const (
	// FramesMax is the maximum call depth. Calling deeper than this is the
	// "Stack overflow." runtime error.
	FramesMax = 64

	// StackMax is the maximum number of values on the VM stack: each frame
	// can address up to 256 slots with its one-byte operands.
	StackMax = FramesMax * 256
)

// A callFrame contains the information needed at runtime about an ongoing
// function call.
type callFrame struct {
	// closure is the closure running in this frame.
	closure *bytecode.Closure

	// ip is the instruction pointer, which points to the next instruction to
	// be executed (it's an index into the closure's chunk).
	ip int

	// slotOffset is the index into the VM stack where this frame's slots
	// begin. Slot zero holds the callee (or the receiver, for methods).
	slotOffset int
}

// VM is a Lox Virtual Machine.
type VM struct {
	// Set DebugTraceExecution to true to make the VM disassemble the code as
	// it runs through it.
	DebugTraceExecution bool

	// out is where the VM sends its output (i.e., where print statements
	// print to).
	out io.Writer

	// frames is the stack of call frames. It has one entry for every
	// function that has started running but hasn't returned yet.
	frames []*callFrame

	// frame is the current call frame (the one on top of VM.frames).
	frame *callFrame

	// stack is the VM stack, used for storing values during interpretation.
	stack *Stack

	// globals maps global variable names to their values. Keys are interned
	// strings, so lookup is by identity.
	globals map[*bytecode.String]bytecode.Value

	// openUpvalues maps stack indices to the open upvalue cell pointing at
	// that slot. This is what makes two closures capturing the same live
	// local share one cell.
	openUpvalues map[int]*bytecode.Upvalue

	// interner is the canonical string table. Shared with the compiler on
	// every Interpret call, so compile-time string constants and runtime
	// strings are the same objects.
	interner *bytecode.Interner

	// initString is the interned "init", looked up on every class call.
	initString *bytecode.String
}

// New returns a new Virtual Machine with the built-in natives already
// defined. out is where the VM sends its output.
func New(out io.Writer) *VM {
	interner := bytecode.NewInterner()
	vm := &VM{
		out:          out,
		frames:       make([]*callFrame, 0, FramesMax),
		stack:        newStack(),
		globals:      map[*bytecode.String]bytecode.Value{},
		openUpvalues: map[int]*bytecode.Upvalue{},
		interner:     interner,
		initString:   interner.Intern("init"),
	}
	vm.defineNative("clock", clock)
	return vm
}

// Interpret compiles and runs source. Returns nil on success, a
// *errs.CompileTimeCollection if compilation failed (nothing is executed in
// that case), or a *errs.Runtime if execution failed. The VM survives
// errors: globals and interned strings stick around for the next call, which
// is what makes the REPL work.
func (vm *VM) Interpret(source string) (err errs.Error) {
	function, compErr := compiler.Compile(source, vm.interner)
	if compErr != nil {
		return compErr
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*errs.Runtime); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	// Top-level code runs as an implicit call to the script closure. Pushing
	// the closure before calling keeps this consistent with calls made by
	// the user, and avoids treating it as a special case elsewhere.
	closure := &bytecode.Closure{Function: function}
	vm.push(bytecode.NewValueClosure(closure))
	vm.call(closure, 0)

	vm.run()
	return nil
}

// currentChunk returns the chunk currently being executed.
func (vm *VM) currentChunk() *bytecode.Chunk {
	return vm.frame.closure.Function.Chunk
}

// run runs the code loaded into vm. Runtime errors are raised as panics
// carrying a *errs.Runtime; Interpret recovers them.
func (vm *VM) run() {
	for {
		if vm.DebugTraceExecution {
			fmt.Fprint(vm.out, "          ")
			for _, v := range vm.stack.data {
				fmt.Fprintf(vm.out, "[ %v ]", v)
			}
			fmt.Fprint(vm.out, "\n")
			bytecode.DisassembleInstruction(vm.currentChunk(), vm.out, vm.frame.ip)
		}

		instruction := bytecode.OpCode(vm.readByte())

		switch instruction {
		case bytecode.OpConstant:
			constant := vm.readConstant()
			vm.push(constant)

		case bytecode.OpNil:
			vm.push(bytecode.NewValueNil())

		case bytecode.OpTrue:
			vm.push(bytecode.NewValueBool(true))

		case bytecode.OpFalse:
			vm.push(bytecode.NewValueBool(false))

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := int(vm.readByte())
			vm.push(vm.stack.at(vm.frame.slotOffset + slot))

		case bytecode.OpSetLocal:
			slot := int(vm.readByte())
			// The assigned value stays on the stack: assignment is an
			// expression.
			vm.stack.setAt(vm.frame.slotOffset+slot, vm.peek(0))

		case bytecode.OpGetGlobal:
			name := vm.readString()
			value, ok := vm.globals[name]
			if !ok {
				vm.runtimeError("Undefined variable '%v'.", name.Text)
			}
			vm.push(value)

		case bytecode.OpDefineGlobal:
			name := vm.readString()
			vm.globals[name] = vm.pop()

		case bytecode.OpSetGlobal:
			name := vm.readString()
			if _, ok := vm.globals[name]; !ok {
				vm.runtimeError("Undefined variable '%v'.", name.Text)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetUpvalue:
			slot := int(vm.readByte())
			upvalue := vm.frame.closure.Upvalues[slot]
			if upvalue.IsOpen() {
				vm.push(vm.stack.at(upvalue.Location))
			} else {
				vm.push(*upvalue.Closed)
			}

		case bytecode.OpSetUpvalue:
			slot := int(vm.readByte())
			upvalue := vm.frame.closure.Upvalues[slot]
			value := vm.peek(0)
			if upvalue.IsOpen() {
				vm.stack.setAt(upvalue.Location, value)
			} else {
				*upvalue.Closed = value
			}

		case bytecode.OpGetProperty:
			if !vm.peek(0).IsInstance() {
				vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := vm.readString()

			if value, ok := instance.Fields[name]; ok {
				vm.pop()
				vm.push(value)
			} else {
				vm.bindMethod(instance.Class, name)
			}

		case bytecode.OpSetProperty:
			if !vm.peek(1).IsInstance() {
				vm.runtimeError("Only instances have fields.")
			}
			name := vm.readString()
			value := vm.pop()
			instance := vm.peek(0).AsInstance()
			instance.Fields[name] = value
			vm.pop()
			vm.push(value)

		case bytecode.OpGetSuper:
			name := vm.readString()
			superclass := vm.pop()
			if !superclass.IsClass() {
				vm.runtimeError("Superclass must be a class.")
			}
			vm.bindMethod(superclass.AsClass(), name)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.NewValueBool(bytecode.ValuesEqual(a, b)))

		case bytecode.OpGreater:
			a, b := vm.popNumericOperands()
			vm.push(bytecode.NewValueBool(a > b))

		case bytecode.OpLess:
			a, b := vm.popNumericOperands()
			vm.push(bytecode.NewValueBool(a < b))

		case bytecode.OpAdd:
			b := vm.peek(0)
			a := vm.peek(1)
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.pop()
				vm.pop()
				vm.push(bytecode.NewValueNumber(a.AsNumber() + b.AsNumber()))
			case a.IsString() && b.IsString():
				vm.pop()
				vm.pop()
				s := vm.interner.Intern(a.AsString().Text + b.AsString().Text)
				vm.push(bytecode.NewValueString(s))
			default:
				vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case bytecode.OpSubtract:
			a, b := vm.popNumericOperands()
			vm.push(bytecode.NewValueNumber(a - b))

		case bytecode.OpMultiply:
			a, b := vm.popNumericOperands()
			vm.push(bytecode.NewValueNumber(a * b))

		case bytecode.OpDivide:
			a, b := vm.popNumericOperands()
			vm.push(bytecode.NewValueNumber(a / b))

		case bytecode.OpNot:
			vm.push(bytecode.NewValueBool(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
			}
			vm.push(bytecode.NewValueNumber(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintf(vm.out, "%v\n", vm.pop())

		case bytecode.OpJump:
			offset := vm.readShort()
			vm.frame.ip += offset

		case bytecode.OpJumpIfFalse:
			offset := vm.readShort()
			// The condition is not popped here; the emitted code around the
			// jump takes care of that.
			if vm.peek(0).IsFalsey() {
				vm.frame.ip += offset
			}

		case bytecode.OpLoop:
			offset := vm.readShort()
			vm.frame.ip -= offset

		case bytecode.OpCall:
			argCount := int(vm.readByte())
			vm.callValue(vm.peek(argCount), argCount)

		case bytecode.OpInvoke:
			method := vm.readString()
			argCount := int(vm.readByte())
			vm.invoke(method, argCount)

		case bytecode.OpSuperInvoke:
			method := vm.readString()
			argCount := int(vm.readByte())
			superclass := vm.pop()
			if !superclass.IsClass() {
				vm.runtimeError("Superclass must be a class.")
			}
			vm.invokeFromClass(superclass.AsClass(), method, argCount)

		case bytecode.OpClosure:
			function := vm.readConstant().AsFunction()
			closure := &bytecode.Closure{
				Function: function,
				Upvalues: make([]*bytecode.Upvalue, 0, function.UpvalueCount),
			}

			// OpClosure has a variable-length encoding: one (isLocal, index)
			// operand pair per upvalue follows the constant index.
			for i := 0; i < function.UpvalueCount; i++ {
				isLocal := vm.readByte() != 0
				index := int(vm.readByte())
				if isLocal {
					upvalue := vm.captureUpvalue(vm.frame.slotOffset + index)
					closure.Upvalues = append(closure.Upvalues, upvalue)
				} else {
					closure.Upvalues = append(closure.Upvalues, vm.frame.closure.Upvalues[index])
				}
			}

			vm.push(bytecode.NewValueClosure(closure))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stack.size() - 1)
			vm.pop()

		case bytecode.OpReturn:
			vm.closeUpvalues(vm.frame.slotOffset)

			result := vm.pop()
			returningFrame := vm.frame
			vm.frames = vm.frames[:len(vm.frames)-1]

			if len(vm.frames) == 0 {
				// That was the top-level script returning. Pop the script
				// closure and halt.
				vm.pop()
				return
			}

			vm.frame = vm.frames[len(vm.frames)-1]
			vm.stack.truncate(returningFrame.slotOffset)
			vm.push(result)

		case bytecode.OpClass:
			name := vm.readString()
			vm.push(bytecode.NewValueClass(bytecode.NewClass(name)))

		case bytecode.OpInherit:
			superclass := vm.peek(1)
			if !superclass.IsClass() {
				vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()

			// Methods are copied down at inheritance time; methods declared
			// in the subclass body afterwards simply overwrite their slots.
			for name, method := range superclass.AsClass().Methods {
				subclass.Methods[name] = method
			}

			vm.pop()

		case bytecode.OpMethod:
			name := vm.readString()
			method := vm.pop()
			class := vm.peek(0).AsClass()
			class.Methods[name] = method

		default:
			vm.runtimeError("Unknown opcode: %d", instruction)
		}
	}
}

//
// Bytecode reading
//

// readByte reads the byte at the instruction pointer and advances it.
func (vm *VM) readByte() uint8 {
	b := vm.currentChunk().Code[vm.frame.ip]
	vm.frame.ip++
	return b
}

// readShort reads a 16-bit big-endian unsigned integer at the instruction
// pointer and advances it.
func (vm *VM) readShort() int {
	chunk := vm.currentChunk()
	value := int(chunk.Code[vm.frame.ip])<<8 | int(chunk.Code[vm.frame.ip+1])
	vm.frame.ip += 2
	return value
}

// readConstant reads a one-byte constant pool index at the instruction
// pointer and returns the corresponding constant value.
func (vm *VM) readConstant() bytecode.Value {
	index := vm.readByte()
	return vm.currentChunk().Constants[index]
}

// readString reads a constant like readConstant and returns it as the
// interned string it is known to be (the compiler only ever emits string
// constants for names).
func (vm *VM) readString() *bytecode.String {
	return vm.readConstant().AsString()
}

//
// Calls and method dispatch
//

// callValue calls callee, which can be anything callable: a closure, a
// class (instantiation), a bound method, or a native function. argCount
// arguments are on the stack above it.
func (vm *VM) callValue(callee bytecode.Value, argCount int) {
	switch v := callee.Value.(type) {
	case *bytecode.BoundMethod:
		// Put the receiver in slot zero, where the method expects `this`.
		vm.stack.setAt(vm.stack.size()-argCount-1, v.Receiver)
		vm.call(v.Method, argCount)

	case *bytecode.Class:
		instance := bytecode.NewInstance(v)
		vm.stack.setAt(vm.stack.size()-argCount-1, bytecode.NewValueInstance(instance))

		if initializer, ok := v.Methods[vm.initString]; ok {
			vm.call(initializer.AsClosure(), argCount)
		} else if argCount != 0 {
			vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}

	case *bytecode.Closure:
		vm.call(v, argCount)

	case *bytecode.Native:
		argsStart := vm.stack.size() - argCount
		result := v.Function(argCount, vm.stack.sliceFrom(argsStart))
		vm.stack.truncate(argsStart - 1)
		vm.push(result)

	default:
		vm.runtimeError("Can only call functions and classes.")
	}
}

// call pushes a new call frame running closure. The arguments (and the
// callee, in slot zero) are already on the stack.
func (vm *VM) call(closure *bytecode.Closure, argCount int) {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}

	if len(vm.frames) >= FramesMax {
		vm.runtimeError("Stack overflow.")
	}

	frame := &callFrame{
		closure:    closure,
		slotOffset: vm.stack.size() - argCount - 1,
	}
	vm.frames = append(vm.frames, frame)
	vm.frame = frame
}

// invoke handles OpInvoke: a property access immediately followed by a call.
// Fields holding callables still work (they just go through the generic
// callValue), but the common case -- calling a method -- skips the
// BoundMethod allocation entirely.
func (vm *VM) invoke(name *bytecode.String, argCount int) {
	receiver := vm.peek(argCount)

	if !receiver.IsInstance() {
		vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()

	if value, ok := instance.Fields[name]; ok {
		vm.stack.setAt(vm.stack.size()-argCount-1, value)
		vm.callValue(value, argCount)
		return
	}

	vm.invokeFromClass(instance.Class, name, argCount)
}

// invokeFromClass calls the method name of class on whatever is sitting in
// the receiver slot.
func (vm *VM) invokeFromClass(class *bytecode.Class, name *bytecode.String, argCount int) {
	method, ok := class.Methods[name]
	if !ok || !method.IsClosure() {
		vm.runtimeError("Undefined property '%v'.", name.Text)
	}
	vm.call(method.AsClosure(), argCount)
}

// bindMethod replaces the receiver on top of the stack with a BoundMethod
// tying it to the method name of class.
func (vm *VM) bindMethod(class *bytecode.Class, name *bytecode.String) {
	method, ok := class.Methods[name]
	if !ok || !method.IsClosure() {
		vm.runtimeError("Undefined property '%v'.", name.Text)
	}

	receiver := vm.pop()
	bound := &bytecode.BoundMethod{Receiver: receiver, Method: method.AsClosure()}
	vm.push(bytecode.NewValueBoundMethod(bound))
}

//
// Upvalue lifecycle
//

// captureUpvalue returns the open upvalue cell for the given stack index,
// creating it if no closure captured that slot yet. Returning the existing
// cell is what makes closures over the same variable share state.
func (vm *VM) captureUpvalue(stackIndex int) *bytecode.Upvalue {
	if upvalue, ok := vm.openUpvalues[stackIndex]; ok {
		return upvalue
	}

	upvalue := &bytecode.Upvalue{Location: stackIndex}
	vm.openUpvalues[stackIndex] = upvalue
	return upvalue
}

// closeUpvalues closes every open upvalue pointing at or above the given
// stack index: the captured values move off the stack and into their cells.
// Called when a frame returns and at explicit OpCloseUpvalue.
func (vm *VM) closeUpvalues(boundary int) {
	for location, upvalue := range vm.openUpvalues {
		if location >= boundary {
			upvalue.Close(vm.stack.at(location))
			delete(vm.openUpvalues, location)
		}
	}
}

//
// Stack access
//

// push pushes a value into the VM stack.
func (vm *VM) push(value bytecode.Value) {
	vm.stack.push(value)
}

// pop pops a value from the VM stack and returns it. Panics on underflow.
func (vm *VM) pop() bytecode.Value {
	return vm.stack.pop()
}

// peek returns a value on the stack that is a given distance from the top.
// Passing 0 means "give me the value on the top of the stack". The stack is
// not changed at all.
func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack.peek(distance)
}

// popNumericOperands pops the two operands of a binary numeric operator,
// raising the canonical runtime error if either is not a number.
func (vm *VM) popNumericOperands() (a, b float64) {
	bv := vm.pop()
	av := vm.pop()
	if !av.IsNumber() || !bv.IsNumber() {
		vm.runtimeError("Operands must be numbers.")
	}
	return av.AsNumber(), bv.AsNumber()
}

//
// Error handling
//

// runtimeError stops the execution, building a Runtime error with a given
// message (with fmt.Printf-like formatting) and a backtrace with one entry
// per active call frame, innermost first. The VM state is reset so the same
// VM can be used again (by the REPL, say).
func (vm *VM) runtimeError(format string, a ...any) {
	message := strings.Builder{}
	message.WriteString(fmt.Sprintf(format, a...))

	for i := len(vm.frames) - 1; i >= 0; i-- {
		frame := vm.frames[i]
		function := frame.closure.Function
		line := function.Chunk.Lines[frame.ip-1]
		if function.Name == nil {
			message.WriteString(fmt.Sprintf("\n[line %v] in script", line))
		} else {
			message.WriteString(fmt.Sprintf("\n[line %v] in %v()", line, function.Name.Text))
		}
	}

	vm.resetStack()
	panic(errs.NewRuntime("%v", message.String()))
}

// resetStack clears the stack, the call frames, and the open upvalues,
// leaving the VM ready to interpret something else.
func (vm *VM) resetStack() {
	vm.stack.clear()
	vm.frames = vm.frames[:0]
	vm.frame = nil
	vm.openUpvalues = map[int]*bytecode.Upvalue{}
}
