/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"time"

	"github.com/stackedboxes/lox/pkg/bytecode"
)

// defineNative registers a native function under a given global name.
func (vm *VM) defineNative(name string, function bytecode.NativeFn) {
	nameObj := vm.interner.Intern(name)
	vm.globals[nameObj] = bytecode.NewValueNative(&bytecode.Native{Function: function})
}

// clock is the one built-in native: returns the number of seconds since the
// Unix epoch. Mostly good for benchmarking Lox programs.
func clock(argCount int, args []bytecode.Value) bytecode.Value {
	return bytecode.NewValueNumber(float64(time.Now().UnixNano()) / 1e9)
}
