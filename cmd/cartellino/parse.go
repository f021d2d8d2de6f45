package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"cartellino/internal/bundle"
	"cartellino/internal/domain"
	"cartellino/internal/parser"
	"cartellino/internal/parser/cartellino"
	"cartellino/internal/pdfkit"
	"cartellino/internal/port"
)

type parseOptions struct {
	input    string
	out      string
	password string
	xlsx     bool
	verbose  bool
}

var parseOpts parseOptions

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse local timesheet PDF or text files",
	Long: `Parse a single file or every *.pdf and *.txt file of a directory and
write {stem}.days.csv, {stem}.pairs.csv, {stem}.totals.json and
{stem}.report.json into the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := parseOpts
		if cfg != nil && cfg.Log.Debug() {
			opts.verbose = true
		}
		return runParse(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseOpts.input, "input", "", "PDF or text file, or a directory of them")
	parseCmd.Flags().StringVar(&parseOpts.out, "out", "", "Output directory")
	parseCmd.Flags().StringVar(&parseOpts.password, "password", "", "Password for encrypted PDFs")
	parseCmd.Flags().BoolVar(&parseOpts.xlsx, "xlsx", false, "Also write a {stem}.xlsx workbook")
	parseCmd.Flags().BoolVar(&parseOpts.verbose, "verbose", false, "Log skipped lines and other parser diagnostics")
	_ = parseCmd.MarkFlagRequired("input")
	_ = parseCmd.MarkFlagRequired("out")
}

// listInputs returns input itself, or the sorted *.pdf and *.txt files of the
// directory input.
func listInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt":
			files = append(files, filepath.Join(input, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func runParse(ctx context.Context, opts parseOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	files, err := listInputs(opts.input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .pdf or .txt files in %s", opts.input)
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", opts.out, err)
	}

	var coreOpts []cartellino.Option
	if opts.verbose {
		coreOpts = append(coreOpts, cartellino.WithDebugLog(log.New(os.Stderr, "cartellino: ", 0)))
	}
	docParser := parser.NewDocumentParser(parser.NewDefaultRegistry(), cartellino.New(coreOpts...))

	failed := 0
	for _, file := range files {
		name := filepath.Base(file)
		totals, err := parseFile(ctx, docParser, file, opts)
		if err != nil {
			failed++
			if errors.Is(err, domain.ErrNoDayLines) {
				fmt.Fprintf(stdout, "%s: %s\n", name, domain.ErrNoDayLines)
			} else {
				fmt.Fprintf(stdout, "%s: failed: %v\n", name, err)
			}
			continue
		}
		fmt.Fprintf(stdout, "%s: %s\n", name, totals)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// parseFile parses one file, writes its bundle and returns the totals as JSON.
func parseFile(ctx context.Context, docParser port.DocumentParser, file string, opts parseOptions) (string, error) {
	contentType, err := parser.ContentTypeForName(file)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	if opts.password != "" && contentType == "application/pdf" {
		if data, err = pdfkit.Decrypt(data, opts.password); err != nil {
			return "", err
		}
	}

	out, err := docParser.Parse(ctx, port.ParseInput{
		FileBytes:   data,
		ContentType: contentType,
		FileName:    filepath.Base(file),
	})
	if err != nil {
		return "", err
	}

	stem := bundle.Stem(filepath.Base(file))
	if err := bundle.Write(bundle.FlatPaths(opts.out, stem, opts.xlsx), out.Document); err != nil {
		return "", err
	}

	totals := out.Document.Totals
	if totals == nil {
		totals = domain.Totals{}
	}
	encoded, err := json.Marshal(totals)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
