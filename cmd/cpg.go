package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataplor/dataplor-cli/internal/cpg"
)

var (
	cpgTableName     string
	cpgFormat        string
	cpgMinConfidence float64
	cpgCity          string
	cpgDay           string
	cpgMinLocations  int
	cpgTopN          int
	cpgClusterSize   int
)

var cpgCmd = &cobra.Command{
	Use:   "cpg <analysis>",
	Short: "Run CPG distribution analyses against a table",
	Long: "Runs one of the domain analyses (" + strings.Join(cpg.Names(), ", ") +
		") or 'all' against a location table in the data source.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		analyzer := cpg.New(src, cfg.CPG, cfg.Schema)
		params := cpg.Params{
			MinConfidence:  cpgMinConfidence,
			City:           cpgCity,
			Day:            cpgDay,
			MinLocations:   cpgMinLocations,
			TopN:           cpgTopN,
			MinClusterSize: cpgClusterSize,
		}

		names := []string{args[0]}
		if args[0] == "all" {
			names = cpg.Names()
		}

		for _, name := range names {
			snap, err := analyzer.Run(ctx, name, cpgTableName, params)
			if err != nil {
				if len(names) > 1 {
					// A table missing one analysis's columns should not
					// sink the rest of the sweep.
					zap.L().Warn("analysis skipped", zap.String("analysis", name), zap.Error(err))
					continue
				}
				return err
			}

			if cpgFormat == "json" {
				if err := printSnapshotJSON(snap); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("\n== %s (%d rows) ==\n", name, snap.NumRows())
			renderSnapshot(os.Stdout, snap)
		}
		return nil
	},
}

func init() {
	cpgCmd.Flags().StringVar(&cpgTableName, "table", "", "location table (required)")
	cpgCmd.Flags().StringVar(&cpgFormat, "format", "table", "output format: table or json")
	cpgCmd.Flags().Float64Var(&cpgMinConfidence, "min-confidence", 0, "minimum confidence score (distribution-points)")
	cpgCmd.Flags().StringVar(&cpgCity, "city", "", "city filter (distribution-points)")
	cpgCmd.Flags().StringVar(&cpgDay, "day", "monday", "weekday (delivery-windows)")
	cpgCmd.Flags().IntVar(&cpgMinLocations, "min-locations", 0, "minimum location count (chains, gaps, engagement, chain-quality)")
	cpgCmd.Flags().IntVar(&cpgTopN, "top", 0, "result limit (density)")
	cpgCmd.Flags().IntVar(&cpgClusterSize, "min-cluster-size", 0, "minimum cluster size (clusters)")
	_ = cpgCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(cpgCmd)
}
