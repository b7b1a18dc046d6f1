/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

import (
	"math"
	"strconv"
)

// Value is a Lox value as seen by the Virtual Machine. It is a tagged union
// in spirit: the wrapped Value is either nil (the Lox nil), a bool, a
// float64, or a pointer to one of the heap object types (String, Function,
// Native, Closure, Class, Instance, BoundMethod).
//
// Wrapping the `any` in a struct keeps us honest: every place creating or
// inspecting a Value goes through the constructors and accessors below.
type Value struct {
	Value any
}

// NewValueNil creates a new Value of type nil.
func NewValueNil() Value {
	return Value{Value: nil}
}

// NewValueBool creates a new Value of type bool.
func NewValueBool(b bool) Value {
	return Value{Value: b}
}

// NewValueNumber creates a new Value of type number.
func NewValueNumber(n float64) Value {
	return Value{Value: n}
}

// NewValueString creates a new Value wrapping the (interned) string object s.
func NewValueString(s *String) Value {
	return Value{Value: s}
}

// NewValueFunction creates a new Value wrapping the function object f.
func NewValueFunction(f *Function) Value {
	return Value{Value: f}
}

// NewValueNative creates a new Value wrapping the native function object n.
func NewValueNative(n *Native) Value {
	return Value{Value: n}
}

// NewValueClosure creates a new Value wrapping the closure object c.
func NewValueClosure(c *Closure) Value {
	return Value{Value: c}
}

// NewValueClass creates a new Value wrapping the class object c.
func NewValueClass(c *Class) Value {
	return Value{Value: c}
}

// NewValueInstance creates a new Value wrapping the instance object i.
func NewValueInstance(i *Instance) Value {
	return Value{Value: i}
}

// NewValueBoundMethod creates a new Value wrapping the bound method object b.
func NewValueBoundMethod(b *BoundMethod) Value {
	return Value{Value: b}
}

// IsNil checks if the value is a Lox nil.
func (v Value) IsNil() bool {
	return v.Value == nil
}

// IsBool checks if the value contains a bool.
func (v Value) IsBool() bool {
	_, ok := v.Value.(bool)
	return ok
}

// IsNumber checks if the value contains a number.
func (v Value) IsNumber() bool {
	_, ok := v.Value.(float64)
	return ok
}

// IsString checks if the value contains a string object.
func (v Value) IsString() bool {
	_, ok := v.Value.(*String)
	return ok
}

// IsFunction checks if the value contains a function object.
func (v Value) IsFunction() bool {
	_, ok := v.Value.(*Function)
	return ok
}

// IsClosure checks if the value contains a closure object.
func (v Value) IsClosure() bool {
	_, ok := v.Value.(*Closure)
	return ok
}

// IsClass checks if the value contains a class object.
func (v Value) IsClass() bool {
	_, ok := v.Value.(*Class)
	return ok
}

// IsInstance checks if the value contains an instance object.
func (v Value) IsInstance() bool {
	_, ok := v.Value.(*Instance)
	return ok
}

// AsBool returns this Value's value, assuming it is a bool.
func (v Value) AsBool() bool {
	return v.Value.(bool)
}

// AsNumber returns this Value's value, assuming it is a number.
func (v Value) AsNumber() float64 {
	return v.Value.(float64)
}

// AsString returns this Value's value, assuming it is a string object.
func (v Value) AsString() *String {
	return v.Value.(*String)
}

// AsFunction returns this Value's value, assuming it is a function object.
func (v Value) AsFunction() *Function {
	return v.Value.(*Function)
}

// AsClosure returns this Value's value, assuming it is a closure object.
func (v Value) AsClosure() *Closure {
	return v.Value.(*Closure)
}

// AsClass returns this Value's value, assuming it is a class object.
func (v Value) AsClass() *Class {
	return v.Value.(*Class)
}

// AsInstance returns this Value's value, assuming it is an instance object.
func (v Value) AsInstance() *Instance {
	return v.Value.(*Instance)
}

// IsFalsey checks if the value is falsey: nil and false are, everything else
// (zero and the empty string included) is truthy.
func (v Value) IsFalsey() bool {
	switch vv := v.Value.(type) {
	case nil:
		return true
	case bool:
		return !vv
	default:
		return false
	}
}

// String converts the value to a string. This is also used by the VM to print
// values, so the output must be the user-visible form.
func (v Value) String() string {
	switch vv := v.Value.(type) {
	case nil:
		return "nil"
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(vv)
	case *String:
		return vv.Text
	case *Function:
		return functionName(vv)
	case *Native:
		return "<native fn>"
	case *Closure:
		return functionName(vv.Function)
	case *Class:
		return vv.Name.Text
	case *Instance:
		return vv.Class.Name.Text + " instance"
	case *BoundMethod:
		return functionName(vv.Method.Function)
	default:
		return "<unexpected value>"
	}
}

// functionName returns the printed form of a function object: "<fn name>" for
// named functions, "<script>" for the nameless top-level one.
func functionName(f *Function) string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Text + ">"
}

// formatNumber renders a Lox number: the shortest decimal representation that
// round-trips, without an exponent, and without a trailing ".0" on integers.
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ValuesEqual checks if a and b are considered equal by Lox's == operator.
// Nil equals nil, bools and numbers compare structurally (IEEE-754 rules, so
// NaN != NaN), and objects compare by identity. Because strings are interned,
// identity on strings coincides with content equality.
func ValuesEqual(a, b Value) bool {
	switch va := a.Value.(type) {
	case nil:
		return b.Value == nil
	case bool:
		vb, ok := b.Value.(bool)
		return ok && va == vb
	case float64:
		vb, ok := b.Value.(float64)
		return ok && va == vb
	default:
		// Objects are pointers here, so comparing the interfaces compares
		// identity. Different object types never compare equal.
		return a.Value == b.Value
	}
}
