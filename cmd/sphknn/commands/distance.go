package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/viant/sphere-knn/sphere"
)

func newDistanceCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "distance <polar1> <azimuth1> <polar2> <azimuth2>",
		Short: "Great-circle distance between two points",
		Example: `  sphknn distance 90 0 90 90
  sphknn distance --radians 1.5708 0 0 0`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, arg := range args {
				f, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				v[i] = f
			}
			a, b := g.point(cmd, v[0], v[1]), g.point(cmd, v[2], v[3])
			for _, p := range []sphere.Point{a, b} {
				if err := p.Validate(); err != nil {
					return err
				}
			}
			d := sphere.Distance(a, b)
			if g.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]float64{
					"distance": g.angle(cmd, d),
					"chord":    sphere.ChordDistance(a, b),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", g.angle(cmd, d))
			return nil
		},
	}
}
