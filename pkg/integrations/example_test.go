package integrations_test

import (
	"fmt"

	"github.com/matzehuels/manifestcheck/pkg/integrations"
)

func ExampleEscapePkgName() {
	fmt.Println(integrations.EscapePkgName("express"))
	fmt.Println(integrations.EscapePkgName("@types/node"))
	// Output:
	// express
	// @types%2fnode
}

func ExampleNormalizePkgName() {
	fmt.Println(integrations.NormalizePkgName("  JSONStream "))
	// Output:
	// JSONStream
}
