package commands

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/viant/sphere-knn/search"
	"github.com/viant/sphere-knn/sphere"
)

var demoIDs = []string{"x+", "x-", "y+", "y-", "z+", "z-"}

// demoPoints are the six axis points in degrees.
var demoPoints = []sphere.Point{
	sphere.FromDegrees(90, 0),
	sphere.FromDegrees(90, 180),
	sphere.FromDegrees(90, 90),
	sphere.FromDegrees(90, -90),
	sphere.FromDegrees(0, 0),
	sphere.FromDegrees(180, 0),
}

func newDemoCmd(g *globals) *cobra.Command {
	var (
		indexName string
		k         int
		step      int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Query the six axis points from the equator",
		Long: `Index the six points where the axes meet the unit sphere and query from the
equator at azimuth -180 + 3.6*step degrees.

Examples:
  sphknn demo
  sphknn demo --index cover --k 4 --step 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := g.kind(cmd, indexName)
			if err != nil {
				return err
			}
			s, err := search.Build(cmd.Context(), kind, demoIDs, demoPoints, search.WithLogger(g.logger()))
			if err != nil {
				return err
			}
			query := sphere.NewPoint(math.Pi/2, -math.Pi+(2*math.Pi/100)*float64(step))
			result, err := s.Search(cmd.Context(), query, g.k(cmd, k))
			if err != nil {
				return err
			}
			return printResult(cmd, g, result, g.useRadians(cmd))
		},
	}
	cmd.Flags().StringVar(&indexName, "index", "auto", "index kind: auto, brute, vptree or cover")
	cmd.Flags().IntVar(&k, "k", 3, "number of neighbors")
	cmd.Flags().IntVar(&step, "step", 54, "query azimuth step out of 100")
	return cmd
}
