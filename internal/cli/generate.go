package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/scene-synth/internal/compositor"
	"github.com/ironsheep/scene-synth/internal/config"
)

type generateOptions struct {
	configPath  string
	objects     string
	backgrounds string
	out         string
	count       int
	maxObjects  int
	seed        uint64
	workers     int
	format      string
	preview     string
	trim        bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Composite synthetic training scenes",
		Long: `Generate writes synthetic object-detection scenes: each one is an augmented
background with a random number of transformed object cutouts placed so that
their margin-expanded boxes never overlap.

Settings come from the built-in defaults, then the optional --config file
(YAML or TOML), then any flag given on the command line.

Without a seed every run produces a new dataset; the seed actually used is
printed with the summary so a run can be repeated with --seed.`,
		Example: `  scene-synth generate --objects cutouts/ --backgrounds scenes/ -n 1000
  scene-synth generate -c synth.yaml --workers 8 --preview preview/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	f.StringVar(&opts.objects, "objects", "", "directory of transparent object cutouts")
	f.StringVar(&opts.backgrounds, "backgrounds", "", "directory of background images")
	f.StringVarP(&opts.out, "out", "o", "", "output directory")
	f.IntVarP(&opts.count, "count", "n", 0, "number of scenes to generate")
	f.IntVar(&opts.maxObjects, "max-objects", 0, "maximum objects per scene")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks a fresh one per run")
	f.IntVarP(&opts.workers, "workers", "w", 0, "scenes generated concurrently")
	f.StringVar(&opts.format, "format", "", "output format: jpg, png or webp")
	f.StringVar(&opts.preview, "preview", "", "also write box previews to this directory")
	f.BoolVar(&opts.trim, "trim", false, "crop cutouts to their opaque content")

	return cmd
}

// resolveConfig layers the config file and the explicitly set flags over
// config.Default.
func resolveConfig(cmd *cobra.Command, opts generateOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("objects") {
		cfg.Input.ObjectsDir = opts.objects
	}
	if f.Changed("backgrounds") {
		cfg.Input.BackgroundsDir = opts.backgrounds
	}
	if f.Changed("out") {
		cfg.Output.Dir = opts.out
	}
	if f.Changed("count") {
		cfg.TotalImages = opts.count
	}
	if f.Changed("max-objects") {
		cfg.MaxObjectsPerImage = opts.maxObjects
	}
	if f.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if f.Changed("preview") {
		cfg.Output.PreviewDir = opts.preview
	}
	if f.Changed("trim") {
		cfg.Transform.TrimCutouts = opts.trim
	}

	return cfg, cfg.Validate()
}

func runGenerate(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	gen, err := compositor.New(cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	prog := newProgress(logger)
	summary, err := gen.Run(ctx)
	if err != nil {
		return fmt.Errorf("generation stopped after %d scenes: %w", summary.Images, err)
	}
	prog.done(fmt.Sprintf("Wrote %d scenes", summary.Images))

	w := cmd.OutOrStdout()
	printSuccess(w, "Generated %d scenes", summary.Images)
	printFile(w, cfg.Output.Dir)
	if cfg.Output.PreviewDir != "" {
		printFile(w, cfg.Output.PreviewDir)
	}
	printKeyValue(w, "objects", fmt.Sprintf("%d placed / %d requested", summary.Placed, summary.Requested))
	printKeyValue(w, "skipped", strconv.Itoa(summary.Skipped))
	printKeyValue(w, "shadows", strconv.Itoa(summary.Shadows))
	printKeyValue(w, "occluded", strconv.Itoa(summary.Occluded))
	printKeyValue(w, "seed", strconv.FormatUint(gen.Config().Seed, 10))
	return nil
}
