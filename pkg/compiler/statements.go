/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package compiler

import (
	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/frontend"
)

// declaration parses any kind of declaration, or falls through to a plain
// statement. This is also where we synchronize after an error: declarations
// are the statement boundaries panic mode looks for.
func (c *Compiler) declaration() {
	if c.match(frontend.TokenKindClass) {
		c.classDeclaration()
	} else if c.match(frontend.TokenKindFun) {
		c.funDeclaration()
	} else if c.match(frontend.TokenKindVar) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

// classDeclaration parses a class declaration. The `class` token must have
// been just consumed.
func (c *Compiler) classDeclaration() {
	c.consume(frontend.TokenKindIdentifier, "Expect class name.")
	className := c.previousToken.Lexeme
	nameConstant := c.identifierConstant(className)
	c.declareVariable()

	c.emitBytes(uint8(bytecode.OpClass), nameConstant)
	c.defineVariable(nameConstant)

	c.classes = append(c.classes, &classCompiler{})

	if c.match(frontend.TokenKindLess) {
		c.consume(frontend.TokenKindIdentifier, "Expect superclass name.")
		c.variable(false)

		if className == c.previousToken.Lexeme {
			c.errorAtPrevious("A class can't inherit from itself.")
		}

		// The superclass is kept around in a local named "super", in a scope
		// of its own, so that `super` expressions in the methods below can
		// capture it like any other variable.
		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitByte(uint8(bytecode.OpInherit))
		c.currentClass().hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(frontend.TokenKindLeftBrace, "Expect '{' before class body.")

	for !c.check(frontend.TokenKindRightBrace) && !c.check(frontend.TokenKindEOF) {
		c.method()
	}

	c.consume(frontend.TokenKindRightBrace, "Expect '}' after class body.")
	c.emitByte(uint8(bytecode.OpPop))

	if c.currentClass().hasSuperclass {
		c.endScope()
	}

	c.classes = c.classes[:len(c.classes)-1]
}

// currentClass returns the classCompiler of the innermost class declaration
// we are inside of. Must not be called when outside a class.
func (c *Compiler) currentClass() *classCompiler {
	return c.classes[len(c.classes)-1]
}

// method parses one method in a class body. A method named `init` is the
// initializer and is compiled with its special return rules.
func (c *Compiler) method() {
	c.consume(frontend.TokenKindIdentifier, "Expect method name.")
	name := c.previousToken.Lexeme
	constant := c.identifierConstant(name)

	ftype := typeMethod
	if name == "init" {
		ftype = typeInitializer
	}

	c.function(ftype)
	c.emitBytes(uint8(bytecode.OpMethod), constant)
}

// funDeclaration parses a function declaration. The `fun` token must have
// been just consumed. The name is marked initialized before the body is
// compiled, so the function can recurse by referring to itself.
func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// function compiles a function body (parameter list and block), then emits
// the OpClosure that creates the runtime closure, followed by one
// (isLocal, index) operand pair per captured upvalue.
func (c *Compiler) function(ftype functionType) {
	c.pushFuncCompiler(ftype)
	c.beginScope()

	c.consume(frontend.TokenKindLeftParen, "Expect '(' after function name.")
	if !c.check(frontend.TokenKindRightParen) {
		for {
			c.currentFunc().function.Arity++
			if c.currentFunc().function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)

			if !c.match(frontend.TokenKindComma) {
				break
			}
		}
	}
	c.consume(frontend.TokenKindRightParen, "Expect ')' after parameters.")
	c.consume(frontend.TokenKindLeftBrace, "Expect '{' before function body.")
	c.block()

	// Grab the upvalue list before popping the funcCompiler: the operand
	// pairs are emitted into the *enclosing* chunk, right after OpClosure.
	upvalues := c.currentFunc().upvalues
	function := c.endFuncCompiler()

	constant := c.makeConstant(bytecode.NewValueFunction(function))
	c.emitBytes(uint8(bytecode.OpClosure), constant)

	for _, u := range upvalues {
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}

// varDeclaration parses a variable declaration. The `var` token must have
// been just consumed. A variable without an initializer starts as nil.
func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(frontend.TokenKindEqual) {
		c.expression()
	} else {
		c.emitByte(uint8(bytecode.OpNil))
	}

	c.consume(frontend.TokenKindSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// statement parses one statement of any kind.
func (c *Compiler) statement() {
	if c.match(frontend.TokenKindPrint) {
		c.printStatement()
	} else if c.match(frontend.TokenKindFor) {
		c.forStatement()
	} else if c.match(frontend.TokenKindIf) {
		c.ifStatement()
	} else if c.match(frontend.TokenKindReturn) {
		c.returnStatement()
	} else if c.match(frontend.TokenKindWhile) {
		c.whileStatement()
	} else if c.match(frontend.TokenKindLeftBrace) {
		c.beginScope()
		c.block()
		c.endScope()
	} else {
		c.expressionStatement()
	}
}

// printStatement parses a print statement. The `print` token must have been
// just consumed.
func (c *Compiler) printStatement() {
	c.expression()
	c.consume(frontend.TokenKindSemicolon, "Expect ';' after value.")
	c.emitByte(uint8(bytecode.OpPrint))
}

// returnStatement parses a return statement. Top-level code can't return at
// all; initializers can return, but not return a value (they always return
// the fresh instance).
func (c *Compiler) returnStatement() {
	if c.currentFunc().ftype == typeScript {
		c.errorAtPrevious("Can't return from top-level code.")
	}

	if c.match(frontend.TokenKindSemicolon) {
		c.emitReturn()
	} else {
		if c.currentFunc().ftype == typeInitializer {
			c.errorAtPrevious("Can't return a value from an initializer.")
		}

		c.expression()
		c.consume(frontend.TokenKindSemicolon, "Expect ';' after return value.")
		c.emitByte(uint8(bytecode.OpReturn))
	}
}

// ifStatement parses an if statement, with an optional else branch.
func (c *Compiler) ifStatement() {
	c.consume(frontend.TokenKindLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(frontend.TokenKindRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(uint8(bytecode.OpJumpIfFalse))
	c.emitByte(uint8(bytecode.OpPop))
	c.statement()

	elseJump := c.emitJump(uint8(bytecode.OpJump))
	c.patchJump(thenJump)
	c.emitByte(uint8(bytecode.OpPop))

	if c.match(frontend.TokenKindElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

// whileStatement parses a while statement.
func (c *Compiler) whileStatement() {
	loopStart := c.currentChunk().Count()

	c.consume(frontend.TokenKindLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(frontend.TokenKindRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(uint8(bytecode.OpJumpIfFalse))
	c.emitByte(uint8(bytecode.OpPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(uint8(bytecode.OpPop))
}

// forStatement parses a for statement. All three clauses are optional. The
// increment clause, when present, runs after the body, which takes a little
// jump choreography given that we emit code in source order.
func (c *Compiler) forStatement() {
	c.beginScope()

	c.consume(frontend.TokenKindLeftParen, "Expect '(' after 'for'.")

	if c.match(frontend.TokenKindSemicolon) {
		// No initializer.
	} else if c.match(frontend.TokenKindVar) {
		c.varDeclaration()
	} else {
		c.expressionStatement()
	}

	loopStart := c.currentChunk().Count()

	exitJump := -1
	if !c.match(frontend.TokenKindSemicolon) {
		c.expression()
		c.consume(frontend.TokenKindSemicolon, "Expect ';' after loop condition.")

		// Jump out of the loop if the condition is false.
		exitJump = c.emitJump(uint8(bytecode.OpJumpIfFalse))
		c.emitByte(uint8(bytecode.OpPop)) // Condition.
	}

	if !c.match(frontend.TokenKindRightParen) {
		bodyJump := c.emitJump(uint8(bytecode.OpJump))
		incrementStart := c.currentChunk().Count()
		c.expression()
		c.emitByte(uint8(bytecode.OpPop))
		c.consume(frontend.TokenKindRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(uint8(bytecode.OpPop)) // Condition.
	}

	c.endScope()
}

// expressionStatement parses an expression statement: an expression
// evaluated for its side effects, its value discarded.
func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(frontend.TokenKindSemicolon, "Expect ';' after expression.")
	c.emitByte(uint8(bytecode.OpPop))
}

// block parses the statements of a block. The opening brace must have been
// just consumed; scoping is the caller's business.
func (c *Compiler) block() {
	for !c.check(frontend.TokenKindRightBrace) && !c.check(frontend.TokenKindEOF) {
		c.declaration()
	}

	c.consume(frontend.TokenKindRightBrace, "Expect '}' after block.")
}
