/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecuteSuite runs the real end-to-end suite shipped in testdata. Each
// case there is a Lox program with its expected output, exit code and error
// messages.
func TestExecuteSuite(t *testing.T) {
	err := ExecuteSuite("testdata/suite")
	require.NoError(t, err)
}

// TestSuiteCatchesWrongOutput checks that the suite runner actually fails
// when expectations don't hold.
func TestSuiteCatchesWrongOutput(t *testing.T) {
	err := ExecuteSuite("testdata/failing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected output")
}

// TestCanonicalizeConfig checks the defaults given to omitted fields.
func TestCanonicalizeConfig(t *testing.T) {
	conf := &config{}
	canonicalizeConfig(conf)

	assert.Equal(t, "main.lox", conf.Source)
	assert.Equal(t, 0, conf.ExitCode)
	assert.NotNil(t, conf.Output)
	assert.NotNil(t, conf.ErrorMessages)
}

// TestOutputLines checks the output splitting corner cases.
func TestOutputLines(t *testing.T) {
	assert.Empty(t, outputLines(""))
	assert.Equal(t, []string{"a"}, outputLines("a\n"))
	assert.Equal(t, []string{"a", "b"}, outputLines("a\nb\n"))
}
