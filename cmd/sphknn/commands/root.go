package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/viant/sphere-knn/search"
	"github.com/viant/sphere-knn/sphere"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	verbose    bool
	radians    bool
	jsonOut    bool

	config *Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "sphknn",
		Short: "k-nearest neighbors on the unit sphere",
		Long: `sphknn - nearest-neighbor search over points on the unit sphere.

Points are (polar, azimuth) pairs: polar is measured from the north pole and
lies in [0, 180] degrees, azimuth is periodic. Distances are great-circle
angles, printed in the same unit as the input.

Examples:
  sphknn demo --index cover
  sphknn query -f points.yaml --polar 90 --azimuth 45 --k 5
  sphknn distance 90 0 90 90
  sphknn db load --db places.sqlite --table places --dataset cities -f points.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				g.config = &Config{}
				return nil
			}
			cfg, err := LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			g.config = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config with defaults and points")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")
	root.PersistentFlags().BoolVar(&g.radians, "radians", false, "angles are radians instead of degrees")
	root.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "print results as JSON, distances in radians")

	root.AddCommand(
		newDemoCmd(g),
		newQueryCmd(g),
		newDistanceCmd(g),
		newDBCmd(g),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (g *globals) logger() *search.Logger {
	if g.verbose {
		return search.NewTextLogger(slog.LevelDebug)
	}
	return search.NewTextLogger(slog.LevelWarn)
}

// useRadians reports whether input and output angles are radians; the flag
// wins over the config unit.
func (g *globals) useRadians(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("radians") || g.config == nil {
		return g.radians
	}
	return g.config.Radians()
}

func (g *globals) point(cmd *cobra.Command, polar, azimuth float64) sphere.Point {
	if g.useRadians(cmd) {
		return sphere.NewPoint(polar, azimuth)
	}
	return sphere.FromDegrees(polar, azimuth)
}

func (g *globals) angle(cmd *cobra.Command, rad float64) float64 {
	if g.useRadians(cmd) {
		return rad
	}
	return sphere.Degrees(rad)
}

// kind resolves the index kind from the flag, then the config.
func (g *globals) kind(cmd *cobra.Command, flag string) (search.Kind, error) {
	name := flag
	if !cmd.Flags().Changed("index") && g.config != nil && g.config.Index != "" {
		name = g.config.Index
	}
	return search.ParseKind(name)
}

// k resolves the neighbor count from the flag, then the config.
func (g *globals) k(cmd *cobra.Command, flag int) int {
	if !cmd.Flags().Changed("k") && g.config != nil && g.config.K > 0 {
		return g.config.K
	}
	return flag
}

// printResult writes one "rank id distance" line per match, or the result as
// JSON with distances in radians.
func printResult(cmd *cobra.Command, g *globals, result search.Result, radians bool) error {
	if g.jsonOut {
		return printJSON(cmd.OutOrStdout(), result)
	}
	out := cmd.OutOrStdout()
	for i, m := range result.Matches {
		d := m.Distance
		if !radians {
			d = sphere.Degrees(d)
		}
		fmt.Fprintf(out, "%d\t%s\t%.6f\n", i+1, m.ID, d)
	}
	if !result.Complete() {
		fmt.Fprintf(out, "# found %d of %d\n", len(result.Matches), result.K)
	}
	return nil
}
