/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package compiler

import (
	"strconv"

	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/frontend"
)

// precedence is an expression precedence level. Higher binds tighter.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// next returns the next-higher precedence level. Used by binary operators,
// which are left-associative: their right operand is parsed one level
// tighter so `a - b - c` means `(a - b) - c`.
func (p precedence) next() precedence {
	if p == precPrimary {
		return precPrimary
	}
	return p + 1
}

// A parseFn is a parsing function in the Pratt table. canAssign tells
// whether the expression being parsed is allowed to be an assignment target
// (only the lowest-precedence contexts are).
type parseFn func(c *Compiler, canAssign bool)

// A parseRule is one row of the Pratt table: how a token kind behaves at the
// start of an expression (prefix), after a left operand (infix), and at what
// precedence.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// getRule returns the parseRule for a given token kind. Token kinds not
// listed here play no role in expressions.
func getRule(kind frontend.TokenKind) parseRule {
	switch kind {
	case frontend.TokenKindLeftParen:
		return parseRule{prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall}
	case frontend.TokenKindDot:
		return parseRule{infix: (*Compiler).dot, precedence: precCall}
	case frontend.TokenKindMinus:
		return parseRule{prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm}
	case frontend.TokenKindPlus:
		return parseRule{infix: (*Compiler).binary, precedence: precTerm}
	case frontend.TokenKindSlash, frontend.TokenKindStar:
		return parseRule{infix: (*Compiler).binary, precedence: precFactor}
	case frontend.TokenKindBang:
		return parseRule{prefix: (*Compiler).unary}
	case frontend.TokenKindBangEqual, frontend.TokenKindEqualEqual:
		return parseRule{infix: (*Compiler).binary, precedence: precEquality}
	case frontend.TokenKindGreater, frontend.TokenKindGreaterEqual,
		frontend.TokenKindLess, frontend.TokenKindLessEqual:
		return parseRule{infix: (*Compiler).binary, precedence: precComparison}
	case frontend.TokenKindIdentifier:
		return parseRule{prefix: (*Compiler).variable}
	case frontend.TokenKindString:
		return parseRule{prefix: (*Compiler).stringLiteral}
	case frontend.TokenKindNumber:
		return parseRule{prefix: (*Compiler).number}
	case frontend.TokenKindAnd:
		return parseRule{infix: (*Compiler).and, precedence: precAnd}
	case frontend.TokenKindOr:
		return parseRule{infix: (*Compiler).or, precedence: precOr}
	case frontend.TokenKindFalse, frontend.TokenKindNil, frontend.TokenKindTrue:
		return parseRule{prefix: (*Compiler).literal}
	case frontend.TokenKindThis:
		return parseRule{prefix: (*Compiler).this}
	case frontend.TokenKindSuper:
		return parseRule{prefix: (*Compiler).super}
	default:
		return parseRule{}
	}
}

// expression parses an expression of any precedence.
func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence parses an expression of at least the given precedence: a
// prefix expression, then any infix operators that bind at least as tightly
// as prec. This little function is the whole Pratt algorithm.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previousToken.Kind).prefix
	if prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}

	// Only the loosest contexts may treat a trailing `=` as assignment:
	// in `a * b = c`, the `b` must not grab the `=`.
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.currentToken.Kind).precedence {
		c.advance()
		infix := getRule(c.previousToken.Kind).infix
		if infix != nil {
			infix(c, canAssign)
		}
	}

	if canAssign && c.match(frontend.TokenKindEqual) {
		// Nobody consumed the `=`: whatever is on the left is not a thing
		// one can assign to.
		c.errorAtPrevious("Invalid assignment target.")
	}
}

//
// Prefix parsers
//

// grouping parses a parenthesized expression. The `(` was just consumed.
func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(frontend.TokenKindRightParen, "Expect ')' after expression.")
}

// number parses a number literal.
func (c *Compiler) number(_ bool) {
	// The scanner only produces well-formed number lexemes, so this parse
	// cannot fail.
	value, _ := strconv.ParseFloat(c.previousToken.Lexeme, 64)
	c.emitConstant(bytecode.NewValueNumber(value))
}

// stringLiteral parses a string literal, stripping the quotes and interning
// the contents.
func (c *Compiler) stringLiteral(_ bool) {
	lexeme := c.previousToken.Lexeme
	s := c.interner.Intern(lexeme[1 : len(lexeme)-1])
	c.emitConstant(bytecode.NewValueString(s))
}

// literal parses the keyword literals nil, true and false.
func (c *Compiler) literal(_ bool) {
	switch c.previousToken.Kind {
	case frontend.TokenKindFalse:
		c.emitByte(uint8(bytecode.OpFalse))
	case frontend.TokenKindNil:
		c.emitByte(uint8(bytecode.OpNil))
	case frontend.TokenKindTrue:
		c.emitByte(uint8(bytecode.OpTrue))
	}
}

// variable parses a variable reference (or assignment, if canAssign and an
// `=` follows).
func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previousToken.Lexeme, canAssign)
}

// this parses a `this` expression. Within a method, `this` is just a local
// variable living in slot zero, so it resolves like any other variable
// (including being captured by nested closures).
func (c *Compiler) this(_ bool) {
	if len(c.classes) == 0 {
		c.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

// super parses a `super.method` access or `super.method(args)` invocation.
// The receiver (`this`) and the superclass (the `super` local) are both
// loaded so the VM can bind or invoke the method on the right pair.
func (c *Compiler) super(_ bool) {
	if len(c.classes) == 0 {
		c.errorAtPrevious("Can't use 'super' outside of a class.")
	} else if !c.currentClass().hasSuperclass {
		c.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	c.consume(frontend.TokenKindDot, "Expect '.' after 'super'.")
	c.consume(frontend.TokenKindIdentifier, "Expect superclass method name.")
	nameConstant := c.identifierConstant(c.previousToken.Lexeme)

	c.namedVariable("this", false)
	if c.match(frontend.TokenKindLeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(uint8(bytecode.OpSuperInvoke), nameConstant)
		c.emitByte(argCount)
	} else {
		c.namedVariable("super", false)
		c.emitBytes(uint8(bytecode.OpGetSuper), nameConstant)
	}
}

// unary parses a unary operator expression. The operand is parsed at unary
// precedence, so `--a` works and `-a.b` negates the property value.
func (c *Compiler) unary(_ bool) {
	operator := c.previousToken.Kind

	c.parsePrecedence(precUnary)

	switch operator {
	case frontend.TokenKindMinus:
		c.emitByte(uint8(bytecode.OpNegate))
	case frontend.TokenKindBang:
		c.emitByte(uint8(bytecode.OpNot))
	}
}

//
// Infix parsers
//

// binary parses the right operand of a binary operator and emits the
// operator's bytecode. The >=, <= and != operators have no opcode of their
// own; they are compiled as the negation of their complement.
func (c *Compiler) binary(_ bool) {
	operator := c.previousToken.Kind
	rule := getRule(operator)
	c.parsePrecedence(rule.precedence.next())

	switch operator {
	case frontend.TokenKindPlus:
		c.emitByte(uint8(bytecode.OpAdd))
	case frontend.TokenKindMinus:
		c.emitByte(uint8(bytecode.OpSubtract))
	case frontend.TokenKindStar:
		c.emitByte(uint8(bytecode.OpMultiply))
	case frontend.TokenKindSlash:
		c.emitByte(uint8(bytecode.OpDivide))
	case frontend.TokenKindBangEqual:
		c.emitBytes(uint8(bytecode.OpEqual), uint8(bytecode.OpNot))
	case frontend.TokenKindEqualEqual:
		c.emitByte(uint8(bytecode.OpEqual))
	case frontend.TokenKindGreater:
		c.emitByte(uint8(bytecode.OpGreater))
	case frontend.TokenKindGreaterEqual:
		c.emitBytes(uint8(bytecode.OpLess), uint8(bytecode.OpNot))
	case frontend.TokenKindLess:
		c.emitByte(uint8(bytecode.OpLess))
	case frontend.TokenKindLessEqual:
		c.emitBytes(uint8(bytecode.OpGreater), uint8(bytecode.OpNot))
	}
}

// call parses a call expression: the argument list after the `(` that
// followed the callee.
func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitBytes(uint8(bytecode.OpCall), argCount)
}

// dot parses a property access, a property assignment, or -- when the name
// is immediately called -- a method invocation compressed into a single
// OpInvoke.
func (c *Compiler) dot(canAssign bool) {
	c.consume(frontend.TokenKindIdentifier, "Expect property name after '.'.")
	nameConstant := c.identifierConstant(c.previousToken.Lexeme)

	if canAssign && c.match(frontend.TokenKindEqual) {
		c.expression()
		c.emitBytes(uint8(bytecode.OpSetProperty), nameConstant)
	} else if c.match(frontend.TokenKindLeftParen) {
		argCount := c.argumentList()
		c.emitBytes(uint8(bytecode.OpInvoke), nameConstant)
		c.emitByte(argCount)
	} else {
		c.emitBytes(uint8(bytecode.OpGetProperty), nameConstant)
	}
}

// and parses the right side of an `and`. Short-circuiting: if the left side
// is falsey it stays on the stack as the result and the right side is
// skipped; otherwise the left side is popped and the right side becomes the
// result.
func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(uint8(bytecode.OpJumpIfFalse))

	c.emitByte(uint8(bytecode.OpPop))
	c.parsePrecedence(precAnd)

	c.patchJump(endJump)
}

// or parses the right side of an `or`. Mirror image of and: a truthy left
// side stays as the result, a falsey one is popped in favor of the right
// side.
func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(uint8(bytecode.OpJumpIfFalse))
	endJump := c.emitJump(uint8(bytecode.OpJump))

	c.patchJump(elseJump)
	c.emitByte(uint8(bytecode.OpPop))

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// argumentList parses a parenthesized, comma-separated list of up to 255
// argument expressions, returning how many there were. The `(` was just
// consumed.
func (c *Compiler) argumentList() uint8 {
	argCount := 0
	if !c.check(frontend.TokenKindRightParen) {
		for {
			c.expression()
			if argCount == 255 {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			} else {
				argCount++
			}
			if !c.match(frontend.TokenKindComma) {
				break
			}
		}
	}
	c.consume(frontend.TokenKindRightParen, "Expect ')' after arguments.")
	return uint8(argCount)
}
