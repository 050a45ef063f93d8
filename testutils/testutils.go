// Package testutils provides utilities for testing Slip code in Go.
package testutils

import (
	"sync"
	"testing"

	"github.com/slip-lang/slip"
)

// testCompiler is the compiler used for all tests.
var testCompiler *slip.Compiler

var testCompilerInit sync.Once

// TestingCompiler returns a compiler for testing Slip. The compiler, and in
// particular its namespace, is shared by all tests that use this package.
func TestingCompiler() *slip.Compiler {
	testCompilerInit.Do(ResetTestingCompiler)
	return testCompiler
}

// ResetTestingCompiler reinitializes the compiler returned by
// TestingCompiler. It is not safe to call this in parallel tests.
func ResetTestingCompiler() {
	testCompiler = slip.NewCompiler()
	testCompiler.NS.Warnf = nil
}

// ReadOne parses a single form, failing the test on error.
func ReadOne(t *testing.T, source string) slip.Model {
	t.Helper()
	m, err := slip.ReadOneString(source, TestingCompiler().NS)
	if err != nil {
		t.Fatalf("could not read %q: %v", source, err)
	}
	return m
}

// A SourceTestCase is a test case containing Slip source code and a
// predicate to check the expansion of its first form.
type SourceTestCase struct {
	// Source is the Slip source code to read and expand.
	Source string
	// Pass is a predicate taking the expanded form. If Pass returns false,
	// then the test fails.
	Pass func(m slip.Model) bool
}

// TestFunc returns a test function for the test case. This uses
// TestingCompiler to read and expand the code.
func (c SourceTestCase) TestFunc() func(*testing.T) {
	return func(t *testing.T) {
		m := ReadOne(t, c.Source)
		out, err := TestingCompiler().Macroexpand(m)
		if err != nil {
			t.Fatalf("could not expand %q: %v", c.Source, err)
		}
		if !c.Pass(out) {
			t.Errorf("%q expanded to wrong result %v", c.Source, out)
		}
	}
}

// PassEqual returns a Pass function that checks for structural equality
// with the form read from want.
func PassEqual(t *testing.T, want string) func(slip.Model) bool {
	return func(m slip.Model) bool {
		return slip.Equal(m, ReadOne(t, want))
	}
}
