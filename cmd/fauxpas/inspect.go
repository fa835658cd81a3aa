package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fauxpas/ml"
	"fauxpas/vocab"
)

func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "List every feature and its accepted values",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, f := range vocab.Features() {
				fmt.Fprintf(w, "%s (--%s)\n", f.DisplayName, f.Name)
				for _, opt := range f.Options {
					fmt.Fprintf(w, "  %-12s %s\n", opt.Label, opt.Code)
				}
			}
		},
	}
}

func newImportancesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "importances",
		Short: "Print the model's feature importances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.loadPipeline()
			if err != nil {
				return err
			}
			printImportances(cmd.OutOrStdout(), p.Importances())
			return nil
		},
	}
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the model bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := opts.loadBundle()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			classes := make([]string, len(bundle.Classes))
			for i, c := range bundle.Classes {
				classes[i] = c.String()
			}
			fmt.Fprintf(w, "Bundle:   %s (version %d)\n", bundle.Path, bundle.Version)
			fmt.Fprintf(w, "Classes:  %s\n", strings.Join(classes, ", "))
			fmt.Fprintf(w, "Columns:  %s\n", strings.Join(bundle.Encoder.FeatureNames(), ", "))

			switch c := bundle.Classifier.(type) {
			case *ml.RandomForest:
				fmt.Fprintf(w, "Model:    random forest, %d trees\n", c.NumTrees())
			case *ml.DecisionTree:
				fmt.Fprintf(w, "Model:    decision tree, depth %d\n", c.Depth())
			default:
				fmt.Fprintf(w, "Model:    %T\n", c)
			}
			return nil
		},
	}
}
