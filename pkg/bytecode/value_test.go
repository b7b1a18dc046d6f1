/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValuesEqual checks the Lox equality rules: structural on nil, bools
// and numbers, identity on objects.
func TestValuesEqual(t *testing.T) {
	interner := NewInterner()

	assert.True(t, ValuesEqual(NewValueNil(), NewValueNil()))
	assert.True(t, ValuesEqual(NewValueBool(true), NewValueBool(true)))
	assert.False(t, ValuesEqual(NewValueBool(true), NewValueBool(false)))
	assert.True(t, ValuesEqual(NewValueNumber(1.5), NewValueNumber(1.5)))
	assert.False(t, ValuesEqual(NewValueNumber(1.5), NewValueNumber(2.5)))

	// Values of different types are never equal, not even the "0 is false"
	// kind of thing other languages indulge in.
	assert.False(t, ValuesEqual(NewValueNil(), NewValueBool(false)))
	assert.False(t, ValuesEqual(NewValueNumber(0), NewValueBool(false)))
	assert.False(t, ValuesEqual(NewValueNumber(1), NewValueString(interner.Intern("1"))))

	// IEEE-754 rules apply: NaN is not even equal to itself.
	nan := NewValueNumber(math.NaN())
	assert.False(t, ValuesEqual(nan, nan))

	// Interned strings with equal contents are the same object, so equality
	// by identity coincides with equality by content.
	a := NewValueString(interner.Intern("hello"))
	b := NewValueString(interner.Intern("hello"))
	c := NewValueString(interner.Intern("goodbye"))
	assert.True(t, ValuesEqual(a, b))
	assert.False(t, ValuesEqual(a, c))

	// Other objects compare by identity only.
	f1 := NewValueFunction(NewFunction())
	f2 := NewValueFunction(NewFunction())
	assert.True(t, ValuesEqual(f1, f1))
	assert.False(t, ValuesEqual(f1, f2))
}

// TestValueIsFalsey checks that nil and false are falsey and everything else
// is truthy, zero and the empty string included.
func TestValueIsFalsey(t *testing.T) {
	interner := NewInterner()

	assert.True(t, NewValueNil().IsFalsey())
	assert.True(t, NewValueBool(false).IsFalsey())

	assert.False(t, NewValueBool(true).IsFalsey())
	assert.False(t, NewValueNumber(0).IsFalsey())
	assert.False(t, NewValueNumber(1).IsFalsey())
	assert.False(t, NewValueString(interner.Intern("")).IsFalsey())
}

// TestValueString checks the printed form of every kind of value.
func TestValueString(t *testing.T) {
	interner := NewInterner()

	assert.Equal(t, "nil", NewValueNil().String())
	assert.Equal(t, "true", NewValueBool(true).String())
	assert.Equal(t, "false", NewValueBool(false).String())
	assert.Equal(t, "hello", NewValueString(interner.Intern("hello")).String())

	// Numbers print without exponents and without a trailing ".0" on
	// integral values.
	assert.Equal(t, "7", NewValueNumber(7).String())
	assert.Equal(t, "2.5", NewValueNumber(2.5).String())
	assert.Equal(t, "-6", NewValueNumber(-6).String())
	assert.Equal(t, "10000000", NewValueNumber(1e7).String())
	assert.Equal(t, "NaN", NewValueNumber(math.NaN()).String())
	assert.Equal(t, "inf", NewValueNumber(math.Inf(1)).String())
	assert.Equal(t, "-inf", NewValueNumber(math.Inf(-1)).String())

	script := NewFunction()
	assert.Equal(t, "<script>", NewValueFunction(script).String())

	named := NewFunction()
	named.Name = interner.Intern("frobnicate")
	assert.Equal(t, "<fn frobnicate>", NewValueFunction(named).String())

	closure := &Closure{Function: named}
	assert.Equal(t, "<fn frobnicate>", NewValueClosure(closure).String())

	native := &Native{}
	assert.Equal(t, "<native fn>", NewValueNative(native).String())

	class := NewClass(interner.Intern("Breakfast"))
	assert.Equal(t, "Breakfast", NewValueClass(class).String())

	instance := NewInstance(class)
	assert.Equal(t, "Breakfast instance", NewValueInstance(instance).String())

	bound := &BoundMethod{Receiver: NewValueInstance(instance), Method: closure}
	assert.Equal(t, "<fn frobnicate>", NewValueBoundMethod(bound).String())
}

// TestInterner checks that interning the same contents twice returns the
// same object, and different contents different objects.
func TestInterner(t *testing.T) {
	interner := NewInterner()

	a := interner.Intern("waffles")
	b := interner.Intern("waffles")
	c := interner.Intern("bacon")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "waffles", a.Text)
}

// TestUpvalueStates checks the two-state life of an upvalue cell.
func TestUpvalueStates(t *testing.T) {
	upvalue := &Upvalue{Location: 3}
	assert.True(t, upvalue.IsOpen())

	upvalue.Close(NewValueNumber(42))
	assert.False(t, upvalue.IsOpen())
	assert.True(t, ValuesEqual(NewValueNumber(42), *upvalue.Closed))
}
