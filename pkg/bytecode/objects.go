/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

// This file defines the heap object types a Value can wrap. They are all
// referenced through pointers, shared freely, and live for as long as
// anything references them (the Go garbage collector is our memory manager,
// so even the Class/Instance/BoundMethod cycle needs no special treatment).

// A String is an immutable Lox string. Strings are interned: within one
// Interner there is exactly one String per distinct content, so pointer
// equality is content equality. Always obtain Strings via Interner.Intern,
// never by creating one directly.
type String struct {
	// Text is the string contents.
	Text string
}

// A Function is a compiled Lox function: a Chunk of bytecode plus the
// metadata the VM needs to call it. Functions are created by the compiler and
// are immutable once compilation ends. The top-level script is a Function
// with a nil Name.
type Function struct {
	// Arity is the declared number of parameters.
	Arity int

	// UpvalueCount is the number of upvalues this function captures. A
	// Closure over this Function carries exactly this many upvalue cells, and
	// the OpClosure instruction that creates it is followed by this many
	// (isLocal, index) operand pairs.
	UpvalueCount int

	// Chunk holds the function's bytecode.
	Chunk *Chunk

	// Name is the function's name, or nil for the top-level script.
	Name *String
}

// NewFunction returns a new, empty Function, ready for the compiler to emit
// into.
func NewFunction() *Function {
	return &Function{Chunk: NewChunk()}
}

// A NativeFn is the Go signature shared by all native functions. args holds
// the argCount arguments, bottom of the stack first.
type NativeFn func(argCount int, args []Value) Value

// A Native wraps a Go function so it can live in the globals table and be
// called like any Lox function.
type Native struct {
	// Function is the Go function to invoke.
	Function NativeFn
}

// A Closure is the runtime representation of a function: the compiled
// Function plus the captured upvalues. Even functions that capture nothing
// are wrapped in a Closure when executed, which keeps calls uniform.
type Closure struct {
	// Function is the compiled function this closure runs.
	Function *Function

	// Upvalues are the captured variables, in the order the compiler emitted
	// them. len(Upvalues) == Function.UpvalueCount.
	Upvalues []*Upvalue
}

// An Upvalue is a cell holding a variable captured by one or more closures.
// It has two states. While open, the variable still lives on the VM stack
// and Location is its stack index. Once the variable's slot leaves scope the
// upvalue is closed: the value moves into Closed and Location is dead.
//
// The cell is shared: every closure capturing the same live local holds the
// same *Upvalue, so an assignment through one is observed by all.
type Upvalue struct {
	// Location is the stack index of the captured variable, while open.
	Location int

	// Closed holds the captured value once the cell is closed; nil while the
	// upvalue is open.
	Closed *Value
}

// IsOpen checks if the upvalue still points into the stack.
func (u *Upvalue) IsOpen() bool {
	return u.Closed == nil
}

// Close moves value into the cell, detaching it from the stack.
func (u *Upvalue) Close(value Value) {
	u.Closed = &value
}

// A Class is a Lox class. The methods table is mutated after creation:
// OpMethod inserts each method as it is compiled, and OpInherit bulk-copies
// the superclass's methods into it.
type Class struct {
	// Name is the class name.
	Name *String

	// Methods maps method names to their Closure values. Keys are interned
	// strings, so lookup is by identity.
	Methods map[*String]Value
}

// NewClass returns a new Class with the given name and no methods.
func NewClass(name *String) *Class {
	return &Class{
		Name:    name,
		Methods: map[*String]Value{},
	}
}

// An Instance is an instance of a Class. Fields are created on first
// assignment; there is no field declaration.
type Instance struct {
	// Class is the class this instance was created from. This is a non-owning
	// back-reference as far as the object graph is concerned, but under a
	// tracing collector it needs no weak-reference machinery.
	Class *Class

	// Fields maps field names to values. Keys are interned strings.
	Fields map[*String]Value
}

// NewInstance returns a new Instance of class with no fields set.
func NewInstance(class *Class) *Instance {
	return &Instance{
		Class:  class,
		Fields: map[*String]Value{},
	}
}

// A BoundMethod is a method value with its receiver captured, so a later
// call does not need the receiver redelivered.
type BoundMethod struct {
	// Receiver is the instance the method was accessed on.
	Receiver Value

	// Method is the method's closure.
	Method *Closure
}
