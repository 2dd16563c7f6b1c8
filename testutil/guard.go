// Package testutil provides helpers for enforcing package boundary rules in
// tests.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// ModulePath is the import path prefix of this module.
const ModulePath = "evictioncrm"

// AssertNoDirectImports scans the non-test .go files in dir and fails if any
// import path satisfies forbidden.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	failIfViolations(t, reason, viols)
}

// NonStdlibImport matches third-party and module-local import paths.
func NonStdlibImport(path string) bool {
	first := strings.SplitN(path, "/", 2)[0]
	return strings.Contains(first, ".") || first == ModulePath
}

// TransportImport matches HTTP frameworks and the API package.
func TransportImport(path string) bool {
	return path == "net/http" ||
		strings.HasPrefix(path, "github.com/labstack/echo") ||
		path == ModulePath+"/internal/httpapi"
}

// StorageDriverImport matches blob drivers and cloud SDKs.
func StorageDriverImport(path string) bool {
	return strings.HasPrefix(path, ModulePath+"/internal/infra/") ||
		strings.HasPrefix(path, "github.com/aws/")
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		fileAst, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip, _ := strconv.Unquote(imp.Path.Value)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
