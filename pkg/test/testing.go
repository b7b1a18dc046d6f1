/******************************************************************************\
* The Lox Programming Language                                                 *
*                                                                              *
* Copyright 2020-2023 Leandro Motta Barros                                     *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package test

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/stackedboxes/lox/pkg/errs"
	"github.com/stackedboxes/lox/pkg/loxutil"
	"github.com/stackedboxes/lox/pkg/vm"
)

// config is the structure mirroring a test case TOML file. Each test case is
// a directory containing a `test.toml` alongside the Lox source it runs.
type config struct {
	// Source is the Lox source file to interpret, relative to the test case
	// directory.
	Source string

	// ExitCode is the expected exit code: 0 for success, 65 for a compile
	// error, 70 for a runtime error.
	ExitCode int

	// Output is the expected standard output, one entry per line.
	Output []string

	// ErrorMessages are regular expressions that must all match the error
	// reported by the interpreter.
	ErrorMessages []string
}

// ExecuteSuite runs the test suite at suitePath: every `test.toml` found
// under it, recursively, defines one test case. Stops at the first failing
// case, returning a TestSuite error describing the failure.
func ExecuteSuite(suitePath string) errs.Error {
	return loxutil.ForEachMatchingFileRecursive(suitePath, regexp.MustCompile("^test.toml$"),
		func(configPath string) errs.Error {
			return runCase(configPath)
		},
	)
}

// runCase runs the test case defined in configPath.
func runCase(configPath string) errs.Error {
	testCase := path.Dir(configPath)

	testConf, err := readConfig(configPath)
	if err != nil {
		return err
	}
	canonicalizeConfig(testConf)

	source, plainErr := os.ReadFile(path.Join(testCase, testConf.Source))
	if plainErr != nil {
		return errs.NewTestSuite(testCase, "reading source: %v.", plainErr)
	}

	out := &bytes.Buffer{}
	theVM := vm.New(out)
	interpErr := theVM.Interpret(string(source))

	// Check the exit code.
	actualExitCode := errs.StatusCodeSuccess
	if interpErr != nil {
		actualExitCode = interpErr.ExitCode()
	}
	if actualExitCode != testConf.ExitCode {
		return errs.NewTestSuite(testCase, "expected exit code %v, got %v.", testConf.ExitCode, actualExitCode)
	}

	// Check the error messages.
	for _, expectedErrMsg := range testConf.ErrorMessages {
		re, plainErr := regexp.Compile(expectedErrMsg)
		if plainErr != nil {
			return errs.NewTestSuite(testCase, "compiling regexp '%v': %v.", expectedErrMsg, plainErr)
		}

		if interpErr == nil || !re.MatchString(interpErr.Error()) {
			got := "<no error>"
			if interpErr != nil {
				got = interpErr.Error()
			}
			return errs.NewTestSuite(testCase, "expected error message '%v', got '%v'.", expectedErrMsg, got)
		}
	}

	// Check the output.
	actualOutput := outputLines(out.String())
	if len(testConf.Output) != len(actualOutput) {
		return errs.NewTestSuite(testCase, "got %v output lines, expected %v.", len(actualOutput), len(testConf.Output))
	}
	for i, actualLine := range actualOutput {
		if actualLine != testConf.Output[i] {
			return errs.NewTestSuite(testCase, "at line %v: expected output '%v', got '%v'.", i, testConf.Output[i], actualLine)
		}
	}

	fmt.Printf("Test case passed: %v.\n", testCase)
	return nil
}

// outputLines splits the interpreter output into lines. An empty output has
// zero lines, not one empty line.
func outputLines(output string) []string {
	if output == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}

// readConfig reads a test configuration from a TOML file.
func readConfig(path string) (*config, errs.Error) {
	tomlSource, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewTestSuite(path, "%v", err.Error())
	}
	tomlConfigData := &config{}
	err = toml.Unmarshal(tomlSource, tomlConfigData)
	if err != nil {
		return nil, errs.NewTestSuite(path, "%v", err.Error())
	}

	return tomlConfigData, nil
}

// canonicalizeConfig gives default values to the fields omitted from the
// TOML file.
func canonicalizeConfig(testConf *config) {
	if testConf.Source == "" {
		testConf.Source = "main.lox"
	}
	if testConf.Output == nil {
		testConf.Output = []string{}
	}
	if testConf.ErrorMessages == nil {
		testConf.ErrorMessages = []string{}
	}
}
