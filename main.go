package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const version = "0.2.0"

var errAnalysisFailed = errors.New("one or more files failed to parse")

func removeExtension(filePath string) string {
	extension := filepath.Ext(filePath)
	return filePath[:len(filePath)-len(extension)]
}

func getClassName(filePath string) string {
	return removeExtension(filepath.Base(filePath))
}

type options struct {
	configFile string
	verbose    bool
	logFormat  string
}

func (o *options) load(cmd *cobra.Command) (Config, *zap.Logger, error) {
	config, err := LoadConfig(o.configFile)
	if err != nil {
		return config, nil, err
	}
	if o.verbose {
		config.Log.Level = "debug"
	}
	if cmd.Flags().Changed("log-format") {
		config.Log.Format = o.logFormat
	}
	if err := config.Validate(); err != nil {
		return config, nil, err
	}
	log, err := NewLogger(config.Log)
	return config, log, err
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "jackanalyzer",
		Short:         "Syntax analyzer for Jack class files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (TOML, or YAML by extension)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "trace every grammar rule")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "log encoding: console or json")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newTokensCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newAnalyzeCommand(opts *options) *cobra.Command {
	var (
		dumpSymbols bool
		strict      bool
		workers     int
		extension   string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file-or-dir>...",
		Short: "Check that each .jack file holds one well-formed class",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cmd.Flags().Changed("strict") {
				config.Analyzer.StrictDeclarations = strict
			}
			if cmd.Flags().Changed("workers") {
				config.Analyzer.Workers = workers
			}
			if cmd.Flags().Changed("ext") {
				config.Analyzer.Extension = extension
			}
			if err := config.Validate(); err != nil {
				return err
			}

			analyzer := NewAnalyzer(config.Analyzer, log)
			results, err := analyzer.AnalyzeAll(cmd.Context(), args)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), log, results, dumpSymbols)
		},
	}

	cmd.Flags().BoolVar(&dumpSymbols, "dump-symbols", false, "print the class-scope symbol table of each parsed file as YAML")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject a name declared twice in the same scope")
	cmd.Flags().IntVar(&workers, "workers", 0, "files analyzed in parallel (0 = unlimited)")
	cmd.Flags().StringVar(&extension, "ext", ".jack", "source file extension")
	return cmd
}

type symbolDump struct {
	File    string   `yaml:"file"`
	Class   string   `yaml:"class"`
	Symbols []Symbol `yaml:"symbols"`
}

func report(w io.Writer, log *zap.Logger, results []Result, dumpSymbols bool) error {
	failed := 0
	for _, result := range results {
		if !result.OK() {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", result.Path, result.Err)
			log.Error("parse failed", zap.String("file", result.Path), zap.Error(result.Err))
			continue
		}

		fmt.Fprintf(w, "OK   %s (%d tokens)\n", result.Path, result.Tokens)
		className := classNameOf(result.Symbols)
		if expected := getClassName(result.Path); className != expected {
			log.Warn("class name does not match file name",
				zap.String("file", result.Path),
				zap.String("class", className),
			)
		}
		if dumpSymbols {
			data, err := yaml.Marshal(symbolDump{File: result.Path, Class: className, Symbols: result.Symbols})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "---\n%s", data)
		}
	}

	log.Info("analysis finished", zap.Int("files", len(results)), zap.Int("failed", failed))
	if failed > 0 {
		return errAnalysisFailed
	}
	return nil
}

func classNameOf(symbols []Symbol) string {
	for _, symbol := range symbols {
		if symbol.Kind == ClassSymbol {
			return symbol.Name
		}
	}
	return ""
}

func newTokensCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the classified token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			handle, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open file %q for reading: %w", args[0], err)
			}
			defer handle.Close()

			return dumpTokens(cmd.OutOrStdout(), NewTokenizer(handle))
		},
	}
}

func dumpTokens(w io.Writer, tokens TokenScanner) error {
	for tokens.Scan() {
		token := tokens.Token()
		fmt.Fprintf(w, "%d\t%s\t%s\n", token.Line(), token.Type(), token.Terminal())
	}
	return tokens.Err()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jackanalyzer %s\n", version)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errAnalysisFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
