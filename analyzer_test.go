package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mainSource = `class Main {
	static int x;

	function void f() {
		var int y;
		let y = x;
		return;
	}
}
`

const brokenSource = `class Broken {
	field Array a;
	let a = 1;
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig().Analyzer, nil)

	t.Run("WholeInput", func(t *testing.T) {
		parser, err := analyzer.Analyze(strings.NewReader(mainSource))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !parser.SymbolTable().IsDefined("x") {
			t.Errorf("expected static x to be defined")
		}
	})

	t.Run("TrailingTokens", func(t *testing.T) {
		_, err := analyzer.Analyze(strings.NewReader("class A { } class B { }"))
		parseErr := asParseError(t, err)
		if parseErr.Expected != "end of input" || !parseErr.Token.Is(Keyword, "class") {
			t.Errorf("expected trailing class to be rejected, got %v", parseErr)
		}
	})

	t.Run("Strict", func(t *testing.T) {
		config := DefaultConfig().Analyzer
		config.StrictDeclarations = true
		_, err := NewAnalyzer(config, nil).Analyze(strings.NewReader("class A { field int a; field int a; }"))
		if !errors.Is(err, ErrRedeclared) {
			t.Errorf("expected redeclaration failure, got %v", err)
		}
	})
}

func TestAnalyzeAll(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"Main.jack":   mainSource,
		"Broken.jack": brokenSource,
		"notes.txt":   "not jack",
	})

	analyzer := NewAnalyzer(DefaultConfig().Analyzer, nil)
	results, err := analyzer.AnalyzeAll(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	broken, mainResult := results[0], results[1]
	if filepath.Base(broken.Path) != "Broken.jack" || filepath.Base(mainResult.Path) != "Main.jack" {
		t.Fatalf("unexpected order: %s, %s", broken.Path, mainResult.Path)
	}

	if broken.OK() || !IsParseFailure(broken.Err) {
		t.Errorf("Broken.jack: expected parse failure, got %v", broken.Err)
	}
	if !mainResult.OK() {
		t.Fatalf("Main.jack: unexpected error: %v", mainResult.Err)
	}
	if mainResult.Tokens != 26 {
		t.Errorf("Main.jack: expected 26 tokens, got %d", mainResult.Tokens)
	}
	if classNameOf(mainResult.Symbols) != "Main" {
		t.Errorf("Main.jack: expected class Main, got %+v", mainResult.Symbols)
	}
}

func TestAnalyzeAllSingleFileAndWorkers(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Main.jack": mainSource})

	config := DefaultConfig().Analyzer
	config.Workers = 1
	results, err := NewAnalyzer(config, nil).AnalyzeAll(context.Background(), []string{filepath.Join(dir, "Main.jack")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].OK() {
		t.Fatalf("expected one successful result, got %+v", results)
	}
}

func TestAnalyzeAllMissingPath(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig().Analyzer, nil)
	if _, err := analyzer.AnalyzeAll(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Errorf("expected error for missing path")
	}
}

func TestAnalyzeFileUnreadable(t *testing.T) {
	result := NewAnalyzer(DefaultConfig().Analyzer, nil).AnalyzeFile(filepath.Join(t.TempDir(), "Nope.jack"))
	if result.OK() {
		t.Fatalf("expected failure")
	}
	if IsParseFailure(result.Err) {
		t.Errorf("open failure must not look like a parse failure: %v", result.Err)
	}
}
