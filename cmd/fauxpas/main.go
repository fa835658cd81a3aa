// Command fauxpas 命令行蘑菇可食性预测工具
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"fauxpas/config"
	"fauxpas/logger"
	"fauxpas/ml"
	"fauxpas/pipeline"
)

// exitError 携带进程退出码
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type options struct {
	bundlePath string
	logLevel   string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			for _, h := range hints {
				fmt.Fprintln(os.Stderr, "Hint:", h)
			}
		}
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	defaults := config.Default()

	root := &cobra.Command{
		Use:           "fauxpas",
		Short:         "Mushroom edibility predictor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Initialize(logger.Config{Level: opts.logLevel, Format: "console"})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Cleanup()
		},
	}

	bundlePath := defaults.Model.BundlePath
	if env := os.Getenv(config.EnvBundlePath); env != "" {
		bundlePath = env
	}
	root.PersistentFlags().StringVar(&opts.bundlePath, "bundle", bundlePath, "path to the model bundle")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPredictCmd(opts),
		newVocabCmd(),
		newImportancesCmd(opts),
		newInspectCmd(opts),
	)
	return root
}

func (o *options) loadBundle() (*ml.Bundle, error) {
	return ml.LoadBundle(config.ExpandPath(o.bundlePath))
}

func (o *options) loadPipeline() (*pipeline.Pipeline, error) {
	bundle, err := o.loadBundle()
	if err != nil {
		return nil, err
	}
	return pipeline.FromBundle(bundle)
}
