package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/adultcensus/internal/config"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/score"
)

func newScoreCommand(root *rootOptions) *cobra.Command {
	var modelDir string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score JSON records read from stdin with a saved model",
		Long: `Reads a JSON array of records such as

  [{"education": "10th", "marital-status": "Married-civ-spouse", "hours-per-week": 35.0}]

from stdin and prints one {"scored_labels", "probability"} object per record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root, nil)
			if err != nil {
				return err
			}
			dir := modelDir
			if dir == "" {
				dir = cfg.ModelDir()
			}

			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(err, "read stdin")
			}
			s := &score.Scorer{}
			if err := s.Init(dir); err != nil {
				return err
			}
			out, err := s.Run(string(input))
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&modelDir, "model", "", "saved model directory (default <outputs>/"+config.ModelDirName+")")
	return cmd
}
