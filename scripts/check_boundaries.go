// Command check_boundaries enforces the import rules between bounded
// contexts and layers. Run it from the repository root.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	modulePath      = "cakeshop"
	contextsImport  = modulePath + "/contexts/"
	platformImport  = modulePath + "/internal/platform"
	contractsImport = modulePath + "/contracts"
)

// compositionRoots may wire several contexts together. The HTTP edge mounts
// every context's transport and maps their domain errors to responses.
var compositionRoots = []string{
	"internal/app/bootstrap",
	"internal/platform/httpserver",
}

type finding struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// location is where a Go file sits in the tree.
type location struct {
	dir     string
	context string
	service string
	layer   string
}

func main() {
	var findings []finding
	for _, root := range []string{"contexts", "internal", "cmd"} {
		found, err := scan(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan %s: %v\n", root, err)
			os.Exit(2)
		}
		findings = append(findings, found...)
	}
	if len(findings) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	fmt.Println("boundary violations found:")
	for _, f := range findings {
		if f.Import == "" {
			fmt.Printf("- %s:%d %s\n", f.File, f.Line, f.Rule)
			continue
		}
		fmt.Printf("- %s:%d imports %q (%s)\n", f.File, f.Line, f.Import, f.Rule)
	}
	os.Exit(1)
}

func scan(root string) ([]finding, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	// Imports are grouped per package so the multi-context rule sees the
	// whole package, not one file.
	contextsByDir := map[string]map[string]finding{}
	var findings []finding

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name == "testdata" || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file := filepath.ToSlash(path)
		loc := locate(file)
		fset := token.NewFileSet()
		parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			findings = append(findings, finding{File: file, Line: 1, Rule: "file must parse"})
			return nil
		}
		for _, imp := range parsed.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			line := fset.Position(imp.Pos()).Line
			for _, rule := range checkImport(loc, importPath) {
				findings = append(findings, finding{File: file, Line: line, Import: importPath, Rule: rule})
			}
			if name := importedContext(importPath); name != "" {
				if contextsByDir[loc.dir] == nil {
					contextsByDir[loc.dir] = map[string]finding{}
				}
				if _, seen := contextsByDir[loc.dir][name]; !seen {
					contextsByDir[loc.dir][name] = finding{File: file, Line: line, Import: importPath}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for dir, imported := range contextsByDir {
		if len(imported) < 2 || isCompositionRoot(dir) || strings.HasPrefix(dir, "contexts/") {
			continue
		}
		for _, f := range imported {
			f.Rule = "only composition roots may import more than one context"
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func locate(file string) location {
	loc := location{dir: filepath.ToSlash(filepath.Dir(file))}
	parts := strings.Split(file, "/")
	if len(parts) >= 4 && parts[0] == "contexts" {
		loc.context = parts[1]
		loc.service = parts[2]
		loc.layer = parts[3]
	}
	return loc
}

// checkImport returns the rules one import breaks.
func checkImport(loc location, importPath string) []string {
	if loc.context == "" {
		return nil
	}
	own := contextsImport + loc.context + "/" + loc.service
	var broken []string

	if strings.HasPrefix(importPath, contextsImport) && !within(importPath, own) {
		broken = append(broken, "a service must not import another service")
	}
	switch loc.layer {
	case "domain":
		if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
			broken = append(broken, "domain must not import adapters")
		}
		if within(importPath, platformImport) {
			broken = append(broken, "domain must not import platform packages")
		}
		if strings.HasPrefix(importPath, modulePath+"/") && !within(importPath, own+"/domain") {
			broken = append(broken, "domain may only import its own domain packages")
		}
	case "application":
		if strings.Contains(importPath, "/adapters/") {
			broken = append(broken, "application must not import adapters")
		}
		if within(importPath, platformImport) {
			broken = append(broken, "application must not import platform packages")
		}
		if strings.HasPrefix(importPath, modulePath+"/") &&
			!within(importPath, own) && !within(importPath, contractsImport) {
			broken = append(broken, "application may only import its service and contracts")
		}
	}
	return broken
}

func importedContext(importPath string) string {
	if !strings.HasPrefix(importPath, contextsImport) {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(importPath, contextsImport), "/")
	return name
}

func isCompositionRoot(dir string) bool {
	for _, root := range compositionRoots {
		if within(dir, root) {
			return true
		}
	}
	return false
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
