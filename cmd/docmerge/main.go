package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/source"
	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/store"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "docmerge - Placeholder merge for DOCX templates")
	fmt.Fprintln(w, "\nUsage: docmerge <command> [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  merge -template T.docx -values V.yaml|V.xlsx -out O.docx   Merge values into a template")
	fmt.Fprintln(w, "  placeholders -template T.docx                              List placeholder names")
	fmt.Fprintln(w, "  version                                                    Show version information")
	fmt.Fprintln(w, "\nExit status is 2 when a template, values, config or image file cannot be used.")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 1
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "docmerge version %s\n", version)
		return 0
	case "merge":
		err = runMerge(ctx, args[1:], stdout)
	case "placeholders":
		err = runPlaceholders(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		usage(stderr)
		return 1
	}

	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "docmerge %s: %v\n", args[0], err)
		return exitCode(err)
	}
	return 0
}

// exitCode is 2 when an input file could not be used and 1 otherwise
func exitCode(err error) int {
	if docmerge.IsDocumentError(err) || docmerge.IsImageError(err) {
		return 2
	}
	return 1
}

func runMerge(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(stdout)
	templatePath := fs.String("template", "", "template `file` (.docx)")
	valuesPath := fs.String("values", "", "values `file` (.yaml, .yml or .xlsx)")
	sheet := fs.String("sheet", "", "worksheet to read values from (default first sheet)")
	outPath := fs.String("out", "", "output `file`")
	configPath := fs.String("config", "", "YAML configuration `file`")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" || *valuesPath == "" || *outPath == "" {
		return fmt.Errorf("-template, -values and -out are required")
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	values, err := loadValues(*valuesPath, *sheet)
	if err != nil {
		return err
	}

	template, err := os.ReadFile(*templatePath)
	if err != nil {
		return docmerge.NewDocumentError("read template", *templatePath, err)
	}

	engine := docmerge.NewWithOptions(
		docmerge.WithConfig(config),
		docmerge.WithLoader(docmerge.FileLoader{Root: filepath.Dir(*valuesPath)}),
		docmerge.WithLogger(docmerge.GetLogger()),
	)
	defer engine.Close()

	result, err := engine.Merge(ctx, template, values)
	if err != nil {
		return err
	}

	out := store.Dir{Root: filepath.Dir(*outPath)}
	if err := out.Put(ctx, filepath.Base(*outPath), result.Bytes); err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(stdout, "warning: %s\n", d)
	}
	fmt.Fprintf(stdout, "Merged %d values into %s\n", len(values), *outPath)
	return nil
}

func runPlaceholders(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("placeholders", flag.ContinueOnError)
	fs.SetOutput(stdout)
	templatePath := fs.String("template", "", "template `file` (.docx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" {
		return fmt.Errorf("-template is required")
	}

	template, err := os.ReadFile(*templatePath)
	if err != nil {
		return docmerge.NewDocumentError("read template", *templatePath, err)
	}
	names, err := docmerge.Placeholders(template)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func loadConfig(path string) (*docmerge.Config, error) {
	config := docmerge.GetGlobalConfig()
	if path != "" {
		var err error
		if config, err = docmerge.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}
	docmerge.SetGlobalConfig(config)
	docmerge.UpdateLoggerFromConfig()
	return config, nil
}

func loadValues(path, sheet string) (docmerge.Values, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return source.LoadYAML(path)
	case ".xlsx", ".xlsm":
		return source.LoadSpreadsheet(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported values file %s", path)
	}
}
