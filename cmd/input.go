package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/quickeda-cli/internal/config"
	"github.com/KaramelBytes/quickeda-cli/internal/render"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/utils"
)

// inputFlags select and parse the dataset. Every analysis command shares them.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
	sql        string
	dsn        string
}

func (f *inputFlags) register(c *cobra.Command, withSQL bool) {
	fl := c.Flags()
	fl.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	fl.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fl.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fl.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fl.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fl.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to process (0 = config default)")
	if withSQL {
		fl.StringVar(&f.sql, "sql", "", "read the table from this SQL query instead of a file")
		fl.StringVar(&f.dsn, "dsn", "", "Postgres connection string for --sql (default: config sql_dsn)")
	}
}

func (f *inputFlags) options(c *cfgpkg.Global) (table.Options, error) {
	opt := table.DefaultOptions()
	opt.Debug = debug
	opt.MaxRows = c.MaxRows
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	opt.Delimiter = c.DelimiterRune()
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.Format.Decimal = ','
	case ".", "dot":
		opt.Format.Decimal = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.Format.Thousands = ','
	case ".":
		opt.Format.Thousands = '.'
	case "space", " ":
		opt.Format.Thousands = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

// load reads the single positional file, or the --sql query.
func (f *inputFlags) load(ctx context.Context, c *cfgpkg.Global, args []string) (*table.Table, error) {
	opt, err := f.options(c)
	if err != nil {
		return nil, err
	}
	if f.sql != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either a file or --sql, not both")
		}
		dsn := f.dsn
		if dsn == "" {
			dsn = c.SQLDSN
		}
		if dsn == "" {
			return nil, fmt.Errorf("--sql needs --dsn or sql_dsn in config")
		}
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		return table.LoadSQL(ctx, db, f.sql, opt.MaxRows)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one input file (or --sql)")
	}
	return table.Load(args[0], opt)
}

// outputFlags choose the report format and destination.
type outputFlags struct {
	format  string
	output  string
	plot    bool
	backend string
	plotDir string
}

func (f *outputFlags) register(c *cobra.Command, withOutput bool) {
	fl := c.Flags()
	fl.StringVar(&f.format, "format", "", "report format: md | html | terminal | json (default: config format)")
	if withOutput {
		fl.StringVarP(&f.output, "output", "o", "", "optional path to write the report (stdout if omitted)")
	}
	fl.BoolVar(&f.plot, "plot", false, "render plots and save them under --plot-dir")
	fl.StringVar(&f.backend, "backend", "", "plot backend: static | interactive (default: config backend)")
	fl.StringVar(&f.plotDir, "plot-dir", "", "directory for rendered plots (default: config plot_dir, else next to the report)")
}

// newAnalyzer builds the facade with the configured session backend.
func (f *outputFlags) newAnalyzer(c *cfgpkg.Global, t *table.Table) (*analysis.DataAnalyzer, error) {
	a, err := analysis.New(t, analysis.WithDebug(debug))
	if err != nil {
		return nil, err
	}
	backend := c.Backend
	if f.backend != "" {
		backend = f.backend
	}
	if err := a.SetBackend(backend); err != nil {
		return nil, err
	}
	return a, nil
}

func (f *outputFlags) formatOf(c *cfgpkg.Global) string {
	if f.format != "" {
		return strings.ToLower(f.format)
	}
	return c.Format
}

func (f *outputFlags) plotDirOf(c *cfgpkg.Global) string {
	switch {
	case f.plotDir != "":
		return f.plotDir
	case c.PlotDir != "":
		return c.PlotDir
	case f.output != "":
		return filepath.Join(filepath.Dir(f.output), "plots")
	}
	return "plots"
}

// write saves plots, renders the summary and writes it to --output or stdout.
func (f *outputFlags) write(cmd *cobra.Command, c *cfgpkg.Global, s *analysis.Summary, t *table.Table) error {
	format := f.formatOf(c)
	opt := render.Options{Table: t}
	base := "."
	if f.output != "" {
		base = filepath.Dir(f.output)
	}
	paths, err := savePlots(s, f.plotDirOf(c), base)
	if err != nil {
		return err
	}
	opt.PlotPaths = paths
	if f.output == "" {
		return render.Write(cmd.OutOrStdout(), s, format, opt)
	}
	var b strings.Builder
	if err := render.Write(&b, s, format, opt); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(f.output, []byte(b.String())); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", f.output)
	return nil
}

// savePlots writes every rendered plot of the summary under dir and maps plot
// IDs to paths relative to base, the directory of the report.
func savePlots(s *analysis.Summary, dir, base string) (map[string]string, error) {
	var paths map[string]string
	for _, rep := range []*analysis.Report{s.Univariate, s.Bivariate} {
		if rep == nil {
			continue
		}
		for _, h := range rep.Plots() {
			path, err := h.Save(dir, h.Title)
			if err != nil {
				return nil, fmt.Errorf("save plot %s: %w", h.Title, err)
			}
			if debug {
				log.Printf("[CLI] saved %s plot %q to %s", h.Backend, h.Title, path)
			}
			if rel, err := filepath.Rel(base, path); err == nil {
				path = filepath.ToSlash(rel)
			}
			if paths == nil {
				paths = map[string]string{}
			}
			paths[h.ID] = path
		}
	}
	return paths, nil
}
