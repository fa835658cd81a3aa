package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"fauxpas/pipeline"
	"fauxpas/vocab"
)

func newPredictCmd(opts *options) *cobra.Command {
	var (
		sel     vocab.Selection
		asJSON  bool
		targets = map[string]*string{
			vocab.Odor:      &sel.Odor,
			vocab.CapShape:  &sel.CapShape,
			vocab.CapColor:  &sel.CapColor,
			vocab.GillSize:  &sel.GillSize,
			vocab.GillColor: &sel.GillColor,
			vocab.Habitat:   &sel.Habitat,
			vocab.Bruises:   &sel.Bruises,
		}
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one mushroom",
		Example: `  fauxpas predict --odor none --cap-shape convex --cap-color white \
    --gill-size broad --gill-color white --habitat woods --bruises no`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.loadPipeline()
			if err != nil {
				return err
			}
			pred, err := p.Predict(sel)
			if err != nil {
				var unknown *vocab.UnknownCategoryError
				if errors.As(err, &unknown) {
					return &exitError{code: 2, err: err}
				}
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pred)
			}
			printPrediction(cmd.OutOrStdout(), pred)
			return nil
		},
	}

	for _, name := range vocab.Names() {
		cmd.Flags().StringVar(targets[name], name, "", fmt.Sprintf("%s (one of %s)", vocab.DisplayName(name), optionList(name)))
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the prediction as JSON")
	return cmd
}

func optionList(feature string) string {
	for _, f := range vocab.Features() {
		if f.Name != feature {
			continue
		}
		labels := make([]string, len(f.Options))
		for i, opt := range f.Options {
			labels[i] = opt.Label
		}
		return strings.Join(labels, ", ")
	}
	return ""
}

func printPrediction(w io.Writer, pred *pipeline.Prediction) {
	fmt.Fprintln(w, pred.Label)
	fmt.Fprintln(w)
	printImportances(w, pred.Importances)
}

func printImportances(w io.Writer, importances []pipeline.FeatureImportance) {
	fmt.Fprintln(w, "Feature importance:")
	for _, fi := range importances {
		fmt.Fprintf(w, "  %-12s %.4f\n", vocab.DisplayName(fi.Feature), fi.Score)
	}
}
