package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
)

var (
	cellsRegion string
	cellsCount  bool
)

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "List the geo cells discovery would search",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := geo.LoadCatalog(cfg.Geo.CatalogPath)
		if err != nil {
			return err
		}
		cells := geo.Filter(geo.Enumerate(catalog), cellsRegion)
		return writeCells(cmd.OutOrStdout(), cells, cellsCount)
	},
}

// writeCells prints one JSON object per cell, or just the count.
func writeCells(w io.Writer, cells []model.GeoCell, countOnly bool) error {
	enc := json.NewEncoder(w)
	if countOnly {
		return enc.Encode(map[string]int{"cells": len(cells)})
	}
	for _, c := range cells {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	cellsCmd.Flags().StringVar(&cellsRegion, "region", "", "restrict to one region code")
	cellsCmd.Flags().BoolVar(&cellsCount, "count", false, "print only the number of cells")
	rootCmd.AddCommand(cellsCmd)
}
