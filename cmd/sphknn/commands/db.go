package commands

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viant/sphere-knn/engine"
	"github.com/viant/sphere-knn/nearest"
	"github.com/viant/sphere-knn/nearestadmin"
	"github.com/viant/sphere-knn/sphere"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type dbFlags struct {
	path    string
	table   string
	dataset string
}

func (f *dbFlags) bind(cmd *cobra.Command, withDataset bool) {
	cmd.Flags().StringVar(&f.path, "db", "sphknn.sqlite", "SQLite database file")
	cmd.Flags().StringVar(&f.table, "table", "places", "nearest virtual table name")
	if withDataset {
		cmd.Flags().StringVar(&f.dataset, "dataset", "default", "dataset id")
	}
}

func (f *dbFlags) validate() error {
	if !identPattern.MatchString(f.table) {
		return fmt.Errorf("invalid table name %q", f.table)
	}
	return nil
}

func (f *dbFlags) shadow() string { return nearest.QualifiedShadow("main", f.table) }

// open opens the database with the nearest module registered and the table
// declared, then allows the second connection vtab queries need.
func (f *dbFlags) open(ctx context.Context, g *globals, options string) (*sql.DB, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	db, err := engine.Open(f.path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := nearest.Register(db, nearest.WithLogger(g.logger())); err != nil {
		_ = db.Close()
		return nil, err
	}
	args := "place_id"
	if options = strings.TrimSpace(options); options != "" {
		args += ", " + options
	}
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING %s(%s)`, f.table, nearest.ModuleName, args),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := nearest.EnsureShadow(ctx, db, f.shadow()); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(2)
	return db, nil
}

func newDBCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage points in a SQLite nearest table",
	}
	cmd.AddCommand(newDBLoadCmd(g), newDBQueryCmd(g), newDBReindexCmd(g))
	return cmd
}

func newDBLoadCmd(g *globals) *cobra.Command {
	var (
		flags   dbFlags
		file    string
		options string
	)
	cmd := &cobra.Command{
		Use:   "load -f <points.yaml>",
		Short: "Insert or replace points of a YAML file into a dataset",
		Example: `  sphknn db load --db places.sqlite --table places --dataset cities -f cities.yaml
  sphknn db load -f cities.yaml --options "index=cover, cover_bound=level"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("flag -f is required")
			}
			cfg, err := LoadConfig(file)
			if err != nil {
				return err
			}
			radians := cfg.Radians()
			if cmd.Flags().Changed("radians") {
				radians = g.radians
			}
			ids, points, err := cfg.Sphere(radians)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := flags.open(ctx, g, options)
			if err != nil {
				return err
			}
			defer db.Close()
			ds, err := nearest.NewDataset(db, flags.table, "", flags.dataset)
			if err != nil {
				return err
			}
			places := make([]sphere.Place, len(ids))
			for i, id := range ids {
				places[i] = sphere.Place{ID: id, Label: cfg.Points[i].Label, Metadata: "{}", Point: points[i]}
			}
			if _, err := ds.AddPlaces(ctx, places); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d points into %s/%s\n", len(ids), flags.table, flags.dataset)
			return nil
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with points")
	cmd.Flags().StringVar(&options, "options", "", "index options used when the table is created")
	return cmd
}

func newDBQueryCmd(g *globals) *cobra.Command {
	var (
		flags   dbFlags
		k       int
		polar   float64
		azimuth float64
		radius  float64
	)
	cmd := &cobra.Command{
		Use:   "query --polar <p> --azimuth <a>",
		Short: "Query a dataset through the nearest virtual table",
		Example: `  sphknn db query --dataset cities --polar 41.1 --azimuth -73.9 --k 5
  sphknn db query --dataset cities --polar 41.1 --azimuth -73.9 --radius 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := flags.open(ctx, g, "")
			if err != nil {
				return err
			}
			defer db.Close()
			radians := g.useRadians(cmd)
			query := g.point(cmd, polar, azimuth)
			if err := query.Validate(); err != nil {
				return err
			}
			ds, err := nearest.NewDataset(db, flags.table, "", flags.dataset)
			if err != nil {
				return err
			}
			var neighbors []sphere.Neighbor
			if cmd.Flags().Changed("radius") {
				r := radius
				if !radians {
					r = sphere.Radians(r)
				}
				neighbors, err = ds.Within(ctx, query, r)
				if k > 0 && len(neighbors) > k {
					neighbors = neighbors[:k]
				}
			} else {
				neighbors, err = ds.Nearest(ctx, query, k)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, n := range neighbors {
				d := n.Distance
				if !radians {
					d = sphere.Degrees(d)
				}
				fmt.Fprintf(out, "%d\t%s\t%.6f\n", i+1, n.Place.ID, d)
			}
			return nil
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().IntVar(&k, "k", 3, "number of neighbors, 0 for all")
	cmd.Flags().Float64Var(&polar, "polar", 0, "query polar angle")
	cmd.Flags().Float64Var(&azimuth, "azimuth", 0, "query azimuth")
	cmd.Flags().Float64Var(&radius, "radius", 0, "only neighbors within this angle")
	_ = cmd.MarkFlagRequired("polar")
	_ = cmd.MarkFlagRequired("azimuth")
	return cmd
}

func newDBReindexCmd(g *globals) *cobra.Command {
	var flags dbFlags
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild and persist VP-tree indexes for every dataset of a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := flags.open(ctx, g, "")
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := nearestadmin.Reindex(ctx, db, g.logger(), flags.shadow())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed:%d\n", n)
			return nil
		},
	}
	flags.bind(cmd, false)
	return cmd
}
