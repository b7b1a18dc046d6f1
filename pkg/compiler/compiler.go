/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package compiler

import (
	"github.com/stackedboxes/lox/pkg/bytecode"
	"github.com/stackedboxes/lox/pkg/errs"
	"github.com/stackedboxes/lox/pkg/frontend"
)

const (
	// maxLocals is the number of local variable slots a function can use.
	// Locals are addressed by a one-byte operand, hence the limit.
	maxLocals = 256

	// maxUpvalues is the number of upvalues a function can capture, for the
	// same one-byte-operand reason.
	maxUpvalues = 256
)

// functionType discriminates the kinds of function-like things we compile.
// The difference matters in a few places: the name of local slot zero, what
// an implicit return returns, and which return statements are legal.
type functionType int

const (
	// typeScript is the implicit function wrapping top-level code.
	typeScript functionType = iota

	// typeFunction is a plain function declared with `fun`.
	typeFunction

	// typeMethod is a method declared in a class body.
	typeMethod

	// typeInitializer is the special `init` method.
	typeInitializer
)

// uninitializedDepth marks a local that has been declared but whose
// initializer is still being compiled. Reading such a local is an error
// (`var a = a;` has no sane meaning).
const uninitializedDepth = -1

// A local is one local variable slot in the function being compiled.
type local struct {
	// name is the variable name, a slice of the source code.
	name string

	// depth is the scope depth at which the local was defined, or
	// uninitializedDepth while its initializer is being compiled.
	depth int

	// isCaptured tells whether some nested function closes over this local.
	// Captured locals leave scope via OpCloseUpvalue instead of OpPop.
	isCaptured bool
}

// An upvalue records one variable captured by the function being compiled.
// The same (index, isLocal) pair is never recorded twice.
type upvalue struct {
	// index is a local slot in the enclosing function (isLocal true) or an
	// upvalue index in the enclosing function (isLocal false).
	index uint8

	// isLocal discriminates what index means.
	isLocal bool
}

// A funcCompiler holds the state for one function being compiled. These are
// stacked: compiling a nested function pushes a new one, finishing it pops.
type funcCompiler struct {
	// function is the Function being built.
	function *bytecode.Function

	// ftype is the kind of function-like thing being compiled.
	ftype functionType

	// locals are the local variables in scope, in declaration order. Index in
	// this slice is the runtime stack slot, relative to the frame base.
	locals []local

	// upvalues are the variables this function captures from enclosing
	// functions. len(upvalues) == function.UpvalueCount.
	upvalues []upvalue

	// scopeDepth is the current block nesting level. Zero is the global scope
	// of the top-level script; a function's parameters and body start at one.
	scopeDepth int
}

// A classCompiler holds the state for one class whose body is being
// compiled. Stacked like funcCompilers, so `this` and `super` resolve
// correctly in nested class declarations.
type classCompiler struct {
	// hasSuperclass tells whether the class declaration has a `<` clause.
	hasSuperclass bool
}

// A Compiler compiles Lox source code to bytecode in a single pass: it is
// the parser and the code generator rolled into one, emitting as it parses.
type Compiler struct {
	// scanner is the Scanner from where we get our tokens.
	scanner *frontend.Scanner

	// currentToken is the token we are looking at.
	currentToken *frontend.Token

	// previousToken is the token we just consumed.
	previousToken *frontend.Token

	// hadError indicates whether we found at least one error. Once set, the
	// compiled Function is garbage and won't be handed to anyone.
	hadError bool

	// panicMode indicates whether we are in panic mode. This has nothing to
	// do with Go panics. Right after finding an error it is hard to generate
	// good error messages because the compiler is "out of sync" with the
	// code, so we enter panic mode (during which we don't report any errors).
	// Once we find a synchronization point, we leave panic mode.
	panicMode bool

	// allErrors collects every error reported during this compile.
	allErrors *errs.CompileTimeCollection

	// compilers is the stack of funcCompilers, one per function currently
	// being compiled. Index 0 is the top-level script; the last element is
	// the innermost function. Keeping them all in one slice owned here makes
	// upvalue resolution a simple walk by index.
	compilers []*funcCompiler

	// classes is the stack of classCompilers, one per class declaration we
	// are currently inside of. Empty means we are outside any class.
	classes []*classCompiler

	// interner is where identifiers and string literals get their canonical
	// String objects. It is owned by the caller (the VM shares its own), so
	// constants compiled here are identical to equal strings created at
	// runtime.
	interner *bytecode.Interner
}

// Compile compiles source into a Function holding the top-level code.
// Interned strings (identifiers and string literals) are created in the
// given interner. Returns the errors found, if any; in that case the
// returned Function is nil.
func Compile(source string, interner *bytecode.Interner) (*bytecode.Function, errs.Error) {
	c := &Compiler{
		scanner:   frontend.NewScanner(source),
		allErrors: &errs.CompileTimeCollection{},
		interner:  interner,
	}

	c.pushFuncCompiler(typeScript)

	c.advance()
	for !c.match(frontend.TokenKindEOF) {
		c.declaration()
	}

	function := c.endFuncCompiler()

	if c.hadError {
		return nil, c.allErrors
	}
	return function, nil
}

//
// Compilation building blocks
//

// advance advances the compiler by one token. This will report errors for
// each error token found; the parsing code only ever sees healthy tokens.
func (c *Compiler) advance() {
	c.previousToken = c.currentToken

	for {
		c.currentToken = c.scanner.Token()
		if c.currentToken.Kind != frontend.TokenKindError {
			break
		}

		c.errorAtCurrent(c.currentToken.Lexeme)
	}
}

// check checks if the current token is of a given kind.
func (c *Compiler) check(kind frontend.TokenKind) bool {
	return c.currentToken.Kind == kind
}

// match consumes the current token if it is of a given kind and returns
// true; otherwise, it simply returns false without consuming any token.
func (c *Compiler) match(kind frontend.TokenKind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

// consume consumes the current token (and advances the compiler), assuming
// it is of a given kind. If it is not of this kind, reports this as an error
// with a given error message.
func (c *Compiler) consume(kind frontend.TokenKind, message string) {
	if c.currentToken.Kind == kind {
		c.advance()
		return
	}

	c.errorAtCurrent(message)
}

//
// funcCompiler stack
//

// currentFunc returns the funcCompiler of the innermost function being
// compiled.
func (c *Compiler) currentFunc() *funcCompiler {
	return c.compilers[len(c.compilers)-1]
}

// currentChunk returns the Chunk bytecode is currently being emitted to.
func (c *Compiler) currentChunk() *bytecode.Chunk {
	return c.currentFunc().function.Chunk
}

// pushFuncCompiler starts compiling a new function of the given type. Local
// slot zero is reserved: methods and initializers use it for `this`, other
// functions keep it nameless (it holds the callee at runtime).
func (c *Compiler) pushFuncCompiler(ftype functionType) {
	fc := &funcCompiler{
		function: bytecode.NewFunction(),
		ftype:    ftype,
		locals:   make([]local, 0, maxLocals),
		upvalues: make([]upvalue, 0, maxUpvalues),
	}

	slotZeroName := ""
	if ftype == typeMethod || ftype == typeInitializer {
		slotZeroName = "this"
	}
	fc.locals = append(fc.locals, local{name: slotZeroName, depth: 0})

	if ftype != typeScript {
		fc.function.Name = c.interner.Intern(c.previousToken.Lexeme)
	}

	c.compilers = append(c.compilers, fc)
}

// endFuncCompiler finishes compiling the innermost function: emits the
// implicit return, pops the funcCompiler, and returns the finished Function.
func (c *Compiler) endFuncCompiler() *bytecode.Function {
	c.emitReturn()

	fc := c.currentFunc()
	c.compilers = c.compilers[:len(c.compilers)-1]

	return fc.function
}

//
// Scopes
//

// beginScope gets called when we enter into a new scope.
func (c *Compiler) beginScope() {
	c.currentFunc().scopeDepth++
}

// endScope gets called when we leave a scope. Every local declared in the
// scope is discarded: popped if nothing captured it, closed into its upvalue
// cell otherwise.
func (c *Compiler) endScope() {
	fc := c.currentFunc()
	fc.scopeDepth--

	for len(fc.locals) > 0 {
		l := fc.locals[len(fc.locals)-1]
		if l.depth == uninitializedDepth || l.depth <= fc.scopeDepth {
			break
		}
		if l.isCaptured {
			c.emitByte(uint8(bytecode.OpCloseUpvalue))
		} else {
			c.emitByte(uint8(bytecode.OpPop))
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

//
// Variable declaration and resolution
//

// parseVariable consumes a variable name and declares it. Returns the
// constant pool index of the name for globals, or zero for locals (which are
// addressed by slot, not by name).
func (c *Compiler) parseVariable(errorMessage string) uint8 {
	c.consume(frontend.TokenKindIdentifier, errorMessage)

	c.declareVariable()
	if c.currentFunc().scopeDepth > 0 {
		return 0
	}

	return c.identifierConstant(c.previousToken.Lexeme)
}

// identifierConstant interns name and adds it to the constant pool,
// returning the pool index.
func (c *Compiler) identifierConstant(name string) uint8 {
	s := c.interner.Intern(name)
	return c.makeConstant(bytecode.NewValueString(s))
}

// declareVariable records the variable just parsed as a local, unless we are
// at global scope (globals are late-bound and need no declaration). Declaring
// the same name twice in the same scope is an error.
func (c *Compiler) declareVariable() {
	fc := c.currentFunc()
	if fc.scopeDepth == 0 {
		return
	}

	name := c.previousToken.Lexeme

	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != uninitializedDepth && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrevious("Already a variable with this name in this scope.")
			break
		}
	}

	c.addLocal(name)
}

// addLocal adds a new local with the given name to the current function. The
// local starts uninitialized; markInitialized flips it live once its
// initializer has been compiled.
func (c *Compiler) addLocal(name string) {
	fc := c.currentFunc()
	if len(fc.locals) >= maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}

	fc.locals = append(fc.locals, local{name: name, depth: uninitializedDepth})
}

// defineVariable makes the variable just declared available for use: emits
// OpDefineGlobal for globals, marks the local initialized otherwise.
func (c *Compiler) defineVariable(global uint8) {
	if c.currentFunc().scopeDepth > 0 {
		c.markInitialized()
		return
	}

	c.emitBytes(uint8(bytecode.OpDefineGlobal), global)
}

// markInitialized gives the newest local its definitive scope depth. A no-op
// at global scope (used when defining functions, which can be global).
func (c *Compiler) markInitialized() {
	fc := c.currentFunc()
	if fc.scopeDepth == 0 {
		return
	}
	fc.locals[len(fc.locals)-1].depth = fc.scopeDepth
}

// namedVariable emits the code to read the variable name, or to assign to it
// if canAssign allows and an `=` follows.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	var arg int

	if arg = c.resolveLocal(c.currentFunc(), name); arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(len(c.compilers)-1, name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(frontend.TokenKindEqual) {
		c.expression()
		c.emitBytes(uint8(setOp), uint8(arg))
	} else {
		c.emitBytes(uint8(getOp), uint8(arg))
	}
}

// resolveLocal looks name up among fc's locals. Returns the slot index, or
// -1 if there is no local with that name. Finding a local whose initializer
// is still being compiled is an error (but the slot is returned anyway; the
// compile already failed).
func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == uninitializedDepth {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name as an upvalue of the function at the given
// level of the compilers stack, recursing outward through the enclosing
// functions. Returns the upvalue index in that function, or -1 if name is
// not a local of any enclosing function (so it must be a global).
//
// The ordering here is load-bearing: the enclosing local is marked captured
// first, then the upvalue is appended to the *current* function (not the
// enclosing one), deduplicating against the upvalues it already has.
func (c *Compiler) resolveUpvalue(level int, name string) int {
	if level == 0 {
		// The top-level script has no enclosing function to capture from.
		return -1
	}

	enclosing := c.compilers[level-1]

	for i := len(enclosing.locals) - 1; i >= 0; i-- {
		l := &enclosing.locals[i]
		if l.name == name && l.depth != uninitializedDepth {
			l.isCaptured = true
			return c.addUpvalue(c.compilers[level], uint8(i), true)
		}
	}

	if up := c.resolveUpvalue(level-1, name); up != -1 {
		return c.addUpvalue(c.compilers[level], uint8(up), false)
	}

	return -1
}

// addUpvalue adds an upvalue with the given index to fc, returning its
// position among fc's upvalues. If an identical upvalue is already there, no
// new one is added and the existing position is returned.
func (c *Compiler) addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	for i, u := range fc.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}

	if len(fc.upvalues) >= maxUpvalues {
		c.errorAtPrevious("Too many closure variables in function.")
		return 0
	}

	fc.upvalues = append(fc.upvalues, upvalue{index: index, isLocal: isLocal})
	fc.function.UpvalueCount++
	return len(fc.upvalues) - 1
}

//
// Bytecode emission
//

// emitByte appends one byte to the current chunk, tagged with the line of
// the token we just consumed.
func (c *Compiler) emitByte(b uint8) {
	line := 0
	if c.previousToken != nil {
		line = c.previousToken.Line
	}
	c.currentChunk().Write(b, line)
}

// emitBytes appends two bytes to the current chunk. Handy for the common
// opcode-plus-operand case.
func (c *Compiler) emitBytes(b1, b2 uint8) {
	c.emitByte(b1)
	c.emitByte(b2)
}

// emitReturn emits the implicit return sequence: initializers return `this`
// (local slot zero), everything else returns nil.
func (c *Compiler) emitReturn() {
	if c.currentFunc().ftype == typeInitializer {
		c.emitBytes(uint8(bytecode.OpGetLocal), 0)
	} else {
		c.emitByte(uint8(bytecode.OpNil))
	}
	c.emitByte(uint8(bytecode.OpReturn))
}

// emitConstant emits the code to load value onto the stack.
func (c *Compiler) emitConstant(value bytecode.Value) {
	c.emitBytes(uint8(bytecode.OpConstant), c.makeConstant(value))
}

// makeConstant adds value to the current chunk's constant pool and returns
// its index. Constants are addressed by a single byte, so a chunk can hold
// at most 256 of them.
func (c *Compiler) makeConstant(value bytecode.Value) uint8 {
	constant := c.currentChunk().AddConstant(value)
	if constant > 255 {
		c.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	return uint8(constant)
}

// emitJump emits a forward jump instruction with a placeholder offset, to be
// patched by patchJump once the target is known. Returns the offset of the
// placeholder within the chunk.
func (c *Compiler) emitJump(instruction uint8) int {
	c.emitByte(instruction)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.currentChunk().Count() - 2
}

// patchJump back-patches the jump whose placeholder lives at offset so that
// it lands on the next instruction to be emitted. Jump offsets are 16-bit
// big-endian, relative to the byte right after the operand.
func (c *Compiler) patchJump(offset int) {
	jump := c.currentChunk().Count() - offset - 2

	if jump > 65535 {
		c.errorAtPrevious("Too much code to jump over.")
	}

	c.currentChunk().Code[offset] = uint8(jump >> 8)
	c.currentChunk().Code[offset+1] = uint8(jump)
}

// emitLoop emits a backward jump to loopStart. Same 16-bit big-endian
// encoding as forward jumps, but the VM subtracts the offset.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(uint8(bytecode.OpLoop))

	offset := c.currentChunk().Count() - loopStart + 2
	if offset > 65535 {
		c.errorAtPrevious("Loop body too large.")
	}

	c.emitByte(uint8(offset >> 8))
	c.emitByte(uint8(offset))
}

//
// Error reporting
//

// errorAtCurrent reports an error at the current (c.currentToken) token.
func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.currentToken, message)
}

// errorAtPrevious reports an error at the token we just consumed
// (c.previousToken).
func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previousToken, message)
}

// errorAt reports an error at a given token, with a given error message.
// While in panic mode, errors are swallowed: the compiler is out of sync
// with the source and would only produce noise.
func (c *Compiler) errorAt(tok *frontend.Token, message string) {
	if c.panicMode {
		return
	}

	c.panicMode = true

	lexeme := ""
	switch tok.Kind {
	case frontend.TokenKindEOF:
		lexeme = "end of file"
	case frontend.TokenKindError:
		// Leave empty: the message is the whole story.
	default:
		lexeme = tok.Lexeme
	}

	c.allErrors.Add(errs.NewCompileTime(tok.Line, lexeme, "%v", message))
	c.hadError = true
}

// synchronize discards tokens until a likely statement boundary: right after
// a semicolon, or right before a keyword that starts a statement. This is how
// we leave panic mode and resume producing useful errors.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.currentToken.Kind != frontend.TokenKindEOF {
		if c.previousToken.Kind == frontend.TokenKindSemicolon {
			return
		}

		switch c.currentToken.Kind {
		case frontend.TokenKindClass, frontend.TokenKindFun, frontend.TokenKindVar,
			frontend.TokenKindFor, frontend.TokenKindIf, frontend.TokenKindWhile,
			frontend.TokenKindPrint, frontend.TokenKindReturn:
			return
		}

		c.advance()
	}
}
