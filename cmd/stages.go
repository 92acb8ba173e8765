package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
)

var (
	uniInput    inputFlags
	uniOutput   outputFlags
	uniAnalysis analysisFlags

	biInput    inputFlags
	biOutput   outputFlags
	biAnalysis analysisFlags

	mvInput    inputFlags
	mvOutput   outputFlags
	mvAnalysis analysisFlags
)

var univariateCmd = &cobra.Command{
	Use:   "univariate [file]",
	Short: "Summarize every column independently",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		t, err := uniInput.load(cmd.Context(), c, args)
		if err != nil {
			return err
		}
		a, err := uniOutput.newAnalyzer(c, t)
		if err != nil {
			return err
		}
		opt := uniAnalysis.runOptions(c, &uniOutput)
		s, err := stage(a, "", func(s *analysis.Summary) error {
			rep, err := a.Univariate(opt.Univariate)
			if err != nil {
				return err
			}
			s.Univariate = rep
			s.Warnings = rep.Warnings
			return nil
		})
		if err != nil {
			return err
		}
		return uniOutput.write(cmd, c, s, t)
	},
}

var bivariateCmd = &cobra.Command{
	Use:   "bivariate [file] --target <column>",
	Short: "Test every feature against a target column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTarget(&biAnalysis, "bivariate"); err != nil {
			return err
		}
		c, err := config()
		if err != nil {
			return err
		}
		t, err := biInput.load(cmd.Context(), c, args)
		if err != nil {
			return err
		}
		a, err := biOutput.newAnalyzer(c, t)
		if err != nil {
			return err
		}
		opt := biAnalysis.runOptions(c, &biOutput)
		s, err := stage(a, biAnalysis.target, func(s *analysis.Summary) error {
			rep, err := a.Bivariate(biAnalysis.target, opt.Bivariate)
			if err != nil {
				return err
			}
			s.Bivariate = rep
			s.Warnings = rep.Warnings
			return nil
		})
		if err != nil {
			return err
		}
		return biOutput.write(cmd, c, s, t)
	},
}

var multivariateCmd = &cobra.Command{
	Use:   "multivariate [file]",
	Short: "Check multicollinearity (VIF) and select features stepwise",
	Long: `Run VIF over the numeric features, stepwise selection against a numeric
--target, or both plus a final OLS fit (--method full). Unlike analyze, a
method that does not apply to the table is an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		t, err := mvInput.load(cmd.Context(), c, args)
		if err != nil {
			return err
		}
		a, err := mvOutput.newAnalyzer(c, t)
		if err != nil {
			return err
		}
		opt := mvAnalysis.runOptions(c, &mvOutput).Multivariate
		if opt.Method == "" {
			opt.Method = a.DefaultMethod(mvAnalysis.target)
		}
		s, err := stage(a, mvAnalysis.target, func(s *analysis.Summary) error {
			mv, err := a.Multivariate(mvAnalysis.target, opt)
			if err != nil {
				return err
			}
			s.Multivariate = mv
			if mv.VIF != nil {
				s.Warnings = mv.VIF.Warnings
			}
			return nil
		})
		if err != nil {
			return err
		}
		return mvOutput.write(cmd, c, s, t)
	},
}

func init() {
	rootCmd.AddCommand(univariateCmd, bivariateCmd, multivariateCmd)

	uniInput.register(univariateCmd, true)
	uniOutput.register(univariateCmd, true)
	uniAnalysis.register(univariateCmd)

	biInput.register(bivariateCmd, true)
	biOutput.register(bivariateCmd, true)
	biAnalysis.register(bivariateCmd)

	mvInput.register(multivariateCmd, true)
	mvOutput.register(multivariateCmd, true)
	mvAnalysis.register(multivariateCmd)
}
