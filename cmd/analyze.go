package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/quickeda-cli/internal/config"
)

// analysisFlags tune the analyzers. Unset flags fall back to the config.
type analysisFlags struct {
	target      string
	features    []string
	sortBy      string
	topK        int
	outlierThr  float64
	rank        bool
	alpha       float64
	method      string
	direction   string
	criterion   string
	minFeatures int
}

func (f *analysisFlags) register(c *cobra.Command) {
	fl := c.Flags()
	fl.StringVarP(&f.target, "target", "t", "", "target column for bivariate and multivariate analysis")
	fl.StringSliceVar(&f.features, "features", nil, "comma-separated feature columns (default: every column but the target)")
	fl.StringVar(&f.sortBy, "sort-by", "", "order numeric columns by a statistic, e.g. std, skew, missing")
	fl.IntVar(&f.topK, "top-k", 0, "categories listed per categorical column (0 = default limit)")
	fl.Float64Var(&f.outlierThr, "outlier-threshold", 0, "robust |z| threshold for outliers (MAD-based)")
	fl.BoolVar(&f.rank, "rank", false, "order relationships by strength instead of column order")
	fl.Float64Var(&f.alpha, "alpha", 0, "significance level for tests and p_value selection")
	fl.StringVar(&f.method, "method", "", "multivariate method: vif | stepwise | full (default: full for a numeric target, else vif)")
	fl.StringVar(&f.direction, "direction", "", "stepwise direction: forward | backward")
	fl.StringVar(&f.criterion, "criterion", "", "stepwise criterion: aic | bic | p_value")
	fl.IntVar(&f.minFeatures, "min-features", -1, "stepwise floor on selected features")
}

// runOptions merges flags over the loaded configuration.
func (f *analysisFlags) runOptions(c *cfgpkg.Global, out *outputFlags) analysis.RunOptions {
	opt := analysis.DefaultRunOptions()

	opt.Univariate.SortBy = pick(f.sortBy, c.SortBy)
	opt.Univariate.TopK = c.TopK
	if f.topK > 0 {
		opt.Univariate.TopK = f.topK
	}
	if c.OutlierThreshold > 0 {
		opt.Univariate.OutlierThreshold = c.OutlierThreshold
	}
	if f.outlierThr > 0 {
		opt.Univariate.OutlierThreshold = f.outlierThr
	}
	opt.Univariate.Plot = out.plot

	alpha := c.Alpha
	if f.alpha > 0 {
		alpha = f.alpha
	}
	opt.Bivariate.Alpha = alpha
	opt.Bivariate.Plot = out.plot
	opt.Bivariate.RankByStrength = f.rank
	opt.Bivariate.Features = f.features

	opt.Multivariate.Method = strings.ToLower(pick(f.method, c.Method))
	opt.Multivariate.Features = f.features
	st := &opt.Multivariate.Stepwise
	st.Direction = strings.ToLower(pick(f.direction, c.Direction))
	st.Criterion = strings.ToLower(pick(f.criterion, c.Criterion))
	st.MinFeatures = c.MinFeatures
	if f.minFeatures >= 0 {
		st.MinFeatures = f.minFeatures
	}
	st.Alpha = alpha
	return opt
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

var (
	anaInput    inputFlags
	anaOutput   outputFlags
	anaAnalysis analysisFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the full analysis of a CSV/TSV/XLSX file or SQL query",
	Long: `Run univariate summaries for every column and, with --target, the
relationships with the target plus multicollinearity and stepwise selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		t, err := anaInput.load(cmd.Context(), c, args)
		if err != nil {
			return err
		}
		a, err := anaOutput.newAnalyzer(c, t)
		if err != nil {
			return err
		}
		s, err := a.RunAll(anaAnalysis.target, anaAnalysis.runOptions(c, &anaOutput))
		if err != nil {
			return err
		}
		return anaOutput.write(cmd, c, s, t)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd, true)
	anaOutput.register(analyzeCmd, true)
	anaAnalysis.register(analyzeCmd)
}

// stage runs one analysis against a fresh summary and stamps its duration.
func stage(a *analysis.DataAnalyzer, target string, fill func(s *analysis.Summary) error) (*analysis.Summary, error) {
	start := time.Now()
	s := a.Summarize(target)
	if err := fill(s); err != nil {
		return nil, err
	}
	s.Elapsed = time.Since(start)
	return s, nil
}

func requireTarget(f *analysisFlags, command string) error {
	if f.target == "" {
		return fmt.Errorf("%s needs --target", command)
	}
	return nil
}
