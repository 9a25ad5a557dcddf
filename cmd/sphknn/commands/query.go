package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/sphere-knn/search"
	"github.com/viant/sphere-knn/sphere"
)

func newQueryCmd(g *globals) *cobra.Command {
	var (
		file      string
		indexName string
		k         int
		polar     float64
		azimuth   float64
	)
	cmd := &cobra.Command{
		Use:   "query -f <points.yaml> --polar <p> --azimuth <a>",
		Short: "Find the nearest points of a YAML point set",
		Long: `Load named points from a YAML file and print the k nearest to a query point.

Example points.yaml:
  unit: degrees
  points:
    - id: north
      polar: 0
      azimuth: 0
    - id: greenwich
      polar: 90
      azimuth: 0

Examples:
  sphknn query -f points.yaml --polar 45 --azimuth 10
  sphknn query -f points.yaml --polar 0.7 --azimuth 0.1 --radians --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.config
			if file != "" {
				loaded, err := LoadConfig(file)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cfg == nil || len(cfg.Points) == 0 {
				return fmt.Errorf("no points, use -f or --config")
			}
			radians := cfg.Radians()
			if cmd.Flags().Changed("radians") {
				radians = g.radians
			}
			ids, points, err := cfg.Sphere(radians)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("index") && cfg.Index != "" {
				indexName = cfg.Index
			}
			kind, err := search.ParseKind(indexName)
			if err != nil {
				return err
			}
			coverOpts, err := cfg.CoverOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") && cfg.K > 0 {
				k = cfg.K
			}
			s, err := search.Build(cmd.Context(), kind, ids, points,
				search.WithLogger(g.logger()),
				search.WithCoverOptions(coverOpts...),
			)
			if err != nil {
				return err
			}
			query := sphere.FromDegrees(polar, azimuth)
			if radians {
				query = sphere.NewPoint(polar, azimuth)
			}
			result, err := s.Search(cmd.Context(), query, k)
			if err != nil {
				return err
			}
			return printResult(cmd, g, result, radians)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with points (defaults to --config)")
	cmd.Flags().StringVar(&indexName, "index", "auto", "index kind: auto, brute, vptree or cover")
	cmd.Flags().IntVar(&k, "k", 3, "number of neighbors, 0 for all")
	cmd.Flags().Float64Var(&polar, "polar", 0, "query polar angle")
	cmd.Flags().Float64Var(&azimuth, "azimuth", 0, "query azimuth")
	_ = cmd.MarkFlagRequired("polar")
	_ = cmd.MarkFlagRequired("azimuth")
	return cmd
}
