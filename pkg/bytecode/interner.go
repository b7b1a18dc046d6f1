/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

// An Interner is a table of canonical String objects. Intern the same
// contents twice and you get the same pointer back, which is what makes
// string equality an O(1) pointer comparison everywhere else.
//
// The VM owns one Interner and lends it to the compiler, so compile-time
// string constants and strings created at runtime (by concatenation) share
// the same canonical objects.
type Interner struct {
	strings map[string]*String
}

// NewInterner returns a new, empty Interner.
func NewInterner() *Interner {
	return &Interner{
		strings: map[string]*String{},
	}
}

// Intern returns the canonical String for s, creating it if this is the
// first time these contents are seen.
func (i *Interner) Intern(s string) *String {
	if existing, ok := i.strings[s]; ok {
		return existing
	}
	obj := &String{Text: s}
	i.strings[s] = obj
	return obj
}
