package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/scene-synth/internal/dataset"
)

func newPrepareCmd() *cobra.Command {
	opts := dataset.PrepareOptions{
		OutputDir:  "dataset",
		TrainRatio: dataset.DefaultTrainRatio,
	}

	cmd := &cobra.Command{
		Use:   "prepare <export.zip>",
		Short: "Split a CVAT YOLO 1.1 export into train and val",
		Long: `Prepare reads a CVAT "YOLO 1.1" export archive, shuffles its images, splits
them into train and val sets with their label files, and writes a data.yaml
descriptor listing the class names from obj.names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ZipPath = args[0]
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			res, err := dataset.Prepare(cmd.Context(), opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Prepared %d images", res.Train+res.Val))

			w := cmd.OutOrStdout()
			printSuccess(w, "Dataset written to %s", opts.OutputDir)
			printFile(w, res.DataFile)
			printKeyValue(w, "train", strconv.Itoa(res.Train))
			printKeyValue(w, "val", strconv.Itoa(res.Val))
			printKeyValue(w, "labels", strconv.Itoa(res.Labels))
			printKeyValue(w, "classes", strings.Join(res.Classes, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "out", "o", opts.OutputDir, "output directory")
	cmd.Flags().Float64Var(&opts.TrainRatio, "train-ratio", opts.TrainRatio, "share of images in the train split")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "shuffle seed")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <data.yaml>",
		Short: "Summarize the boxes of a prepared dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.LoadDataFile(args[0])
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("analyzing dataset", "root", d.Root(), "classes", len(d.Names))

			report, err := dataset.Analyze(cmd.Context(), d)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTitle(w, fmt.Sprintf("%d boxes in %s", report.Instances(), d.Root()))
			fmt.Fprint(w, dataset.RenderTable(report))
			return nil
		},
	}
}
