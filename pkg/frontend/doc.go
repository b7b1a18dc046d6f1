/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// The frontend package contains the pieces that look at Lox source code
// directly: the token definitions and the Scanner that produces them. The
// compiler package drives the Scanner and does everything else in a single
// pass, so there is no AST to be found anywhere.
package frontend
