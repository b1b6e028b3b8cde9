// calc-catalog prints the functions registered by a calc runtime. on a
// terminal it prints a table, otherwise JSON or YAML.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	calc "github.com/vogtb/go-spreadsheet/packages/calc"
	"go.alis.build/alog"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML runtime configuration")
	format := flag.String("format", "", "output format: table, json or yaml (default: table on a terminal, yaml otherwise)")
	hidden := flag.Bool("hidden", false, "include hidden functions")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, os.Stdout, *configPath, *format, *hidden); err != nil {
		alog.Errorf(ctx, "calc-catalog: %s: %v", calc.CodeOf(err), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out *os.File, configPath, format string, hidden bool) error {
	cfg := calc.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = calc.LoadConfig(configPath); err != nil {
			return err
		}
	}
	alog.SetLevel(cfg.Level())
	rt, err := calc.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	catalog := calc.NewCatalog(rt.Functions(), rt.Info().Tag(), hidden)

	if format == "" {
		format = "yaml"
		if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
			format = "table"
		}
	}
	switch strings.ToLower(format) {
	case "table":
		return writeTable(out, catalog)
	case "json":
		return catalog.WriteJSON(out)
	case "yaml":
		return catalog.WriteYAML(out)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeTable(w io.Writer, c *calc.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARGS\tRETURNS\tVOLATILE\tSUMMARY")
	for _, e := range c.Functions {
		minArgs, maxArgs := e.Declaration.Arity()
		args := fmt.Sprintf("%d..%d", minArgs, maxArgs)
		if maxArgs < 0 {
			args = fmt.Sprintf("%d..", minArgs)
		}
		summary := ""
		if e.Descriptor != nil {
			summary = e.Descriptor.Summary
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", e.Declaration.Name, args, e.Declaration.Return.Type, e.Declaration.Volatile, summary)
	}
	return tw.Flush()
}
