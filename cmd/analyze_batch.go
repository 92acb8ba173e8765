package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/quickeda-cli/internal/render"
	"github.com/KaramelBytes/quickeda-cli/internal/utils"
)

var (
	abInput     inputFlags
	abOutput    outputFlags
	abAnalysis  analysisFlags
	abOutputDir string
	abContinue  bool
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files with progress, one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := config()
		if err != nil {
			return err
		}
		format := abOutput.formatOf(c)
		if err := render.CheckFormat(format); err != nil {
			return err
		}

		outDir := abOutputDir
		if outDir == "" {
			outDir = c.OutputDir
		}
		if outDir == "" {
			outDir = "."
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		opt := abAnalysis.runOptions(c, &abOutput)
		out := cmd.OutOrStdout()

		total := len(files)
		var failed int
		used := map[string]struct{}{}
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			err := func() error {
				t, err := abInput.load(cmd.Context(), c, []string{path})
				if err != nil {
					return err
				}
				a, err := abOutput.newAnalyzer(c, t)
				if err != nil {
					return err
				}
				s, err := a.RunAll(abAnalysis.target, opt)
				if err != nil {
					return err
				}
				stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				outFile := uniquePath(outDir, stem, ".summary"+render.Ext(format), used)
				plotDir := filepath.Join(pick(abOutput.plotDir, filepath.Join(outDir, "plots")), utils.SafeStem(stem))
				paths, err := savePlots(s, plotDir, outDir)
				if err != nil {
					return err
				}
				var b strings.Builder
				if err := render.Write(&b, s, format, render.Options{Table: t, PlotPaths: paths}); err != nil {
					return err
				}
				if err := utils.SafeWriteFile(outFile, []byte(b.String())); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if !abQuiet {
					fmt.Fprintf(out, "✓ Wrote analysis to %s\n", outFile)
					for _, w := range s.Warnings {
						fmt.Fprintf(out, "⚠ %s\n", w)
					}
				}
				return nil
			}()
			if err != nil {
				if !abContinue {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", filepath.Base(path), err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, total)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist and drops
// duplicates. The result is sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniquePath returns dir/stem+ext, suffixing __2, __3, ... when an earlier
// file of this batch or an existing file already took the name.
func uniquePath(dir, stem, ext string, used map[string]struct{}) string {
	cand := filepath.Join(dir, stem+ext)
	for idx := 2; ; idx++ {
		_, taken := used[cand]
		if !taken {
			if _, err := os.Stat(cand); os.IsNotExist(err) {
				break
			}
		}
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, idx, ext))
	}
	used[cand] = struct{}{}
	return cand
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd, false)
	abOutput.register(analyzeBatchCmd, false)
	abAnalysis.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "directory for <name>.summary.<ext> reports (default: config output_dir, else current dir)")
	analyzeBatchCmd.Flags().BoolVar(&abContinue, "keep-going", false, "continue with the next file after a failure")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
