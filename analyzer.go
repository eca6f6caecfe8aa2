package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of analyzing one source file.
type Result struct {
	Path    string
	Tokens  int
	Symbols []Symbol
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Analyzer struct {
	config AnalyzerConfig
	log    *zap.Logger
}

func NewAnalyzer(config AnalyzerConfig, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{config: config, log: log}
}

// Analyze parses one class from r. The class must make up the whole input.
func (a *Analyzer) Analyze(r io.Reader) (*Parser, error) {
	symbols := NewSymbolTable(
		WithStrictDeclarations(a.config.StrictDeclarations),
		WithSymbolLogger(a.log),
	)
	parser := NewParser(NewTokenizer(r), WithLogger(a.log), WithSymbolTable(symbols))

	if err := parser.ParseClass(); err != nil {
		return parser, err
	}
	if trailing := parser.Current(); !trailing.IsEOF() {
		return parser, &ParseError{Token: trailing, Expected: "end of input"}
	}
	return parser, nil
}

func (a *Analyzer) AnalyzeFile(path string) Result {
	result := Result{Path: path}

	handle, err := os.Open(path)
	if err != nil {
		result.Err = fmt.Errorf("could not open file %q for reading: %w", path, err)
		return result
	}
	defer handle.Close()

	parser, err := a.Analyze(handle)
	result.Tokens = parser.Consumed()
	result.Symbols = parser.SymbolTable().Symbols(ClassScope)
	result.Err = err

	if err != nil {
		a.log.Debug("analysis failed", zap.String("file", path), zap.Error(err))
	} else {
		a.log.Debug("analysis succeeded", zap.String("file", path), zap.Int("tokens", result.Tokens))
	}
	return result
}

// AnalyzeAll analyzes every matching file below paths. Files are independent
// and run concurrently; results keep the order of CollectFiles.
func (a *Analyzer) AnalyzeAll(ctx context.Context, paths []string) ([]Result, error) {
	var files []string
	for _, path := range paths {
		collected, err := CollectFiles(path, a.config.Extension)
		if err != nil {
			return nil, err
		}
		files = append(files, collected...)
	}

	results := make([]Result, len(files))
	group, ctx := errgroup.WithContext(ctx)
	if a.config.Workers > 0 {
		group.SetLimit(a.config.Workers)
	}
	for i, file := range files {
		i, file := i, file // per-iteration copy (go 1.21 loop semantics)
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.AnalyzeFile(file)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CollectFiles returns fileOrDir itself, or the files directly inside it
// whose extension matches.
func CollectFiles(fileOrDir, extension string) (files []string, err error) {
	fileOrDirStat, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file/dir %q: %w", fileOrDir, err)
	}

	if !fileOrDirStat.IsDir() {
		return []string{fileOrDir}, nil
	}

	dirEntries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("could not open directory %q: %w", fileOrDir, err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
