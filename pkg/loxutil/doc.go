/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// The loxutil ("Lox utils") package contains assorted utilities used in
// various other Lox packages. Now, that's a clever way of having a "util"
// package without having a "util" package!
package loxutil
