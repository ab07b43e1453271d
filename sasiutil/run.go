/*
Copyright © 2024 the SASI Gridder authors.
This file is part of SASI Gridder.

SASI Gridder is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SASI Gridder is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SASI Gridder.  If not, see <http://www.gnu.org/licenses/>.
*/

package sasiutil

import (
	"fmt"
	"log"
	"os"

	"github.com/adorsk-noaa/sasi-gridder/effort"
	"github.com/adorsk-noaa/sasi-gridder/griddata"
	"github.com/adorsk-noaa/sasi-gridder/gridder"
)

// Run executes one end-to-end gridding pass per the config bound in cfg:
// ingest the grid and stat-area shapefiles, ingest and map the raw efforts
// CSV, run the three-phase engine, and write the output CSV. Grounded on
// run.go's top-level Run function, which performs the analogous
// validate-flags-then-run-the-model sequencing for InMAP.
func Run(cfg *Cfg) error {
	if err := setConfig(cfg); err != nil {
		return err
	}

	gridPath := cfg.GetString("grid")
	rawEffortsPath := cfg.GetString("raw-efforts")
	statAreasPath := cfg.GetString("stat-areas")
	if gridPath == "" || rawEffortsPath == "" || statAreasPath == "" {
		return &ConfigError{Reason: "--grid, --raw-efforts, and --stat-areas are all required"}
	}

	outputPath := cfg.GetString("output-path")
	if outputPath == "" {
		f, err := os.CreateTemp("", "gridded_efforts.*.csv")
		if err != nil {
			return &ConfigError{Reason: fmt.Sprintf("creating default output file: %v", err)}
		}
		outputPath = f.Name()
		f.Close()
	}

	cellSize := cfg.GetFloat64("cell-size")

	log.Printf("sasigrid: ingesting grid from %s", gridPath)
	gridReader, err := griddata.NewShpShapeReader(gridPath, "ID")
	if err != nil {
		return err
	}
	defer gridReader.Close()
	grid, err := griddata.LoadGrid(gridReader, cellSize)
	if err != nil {
		return err
	}

	log.Printf("sasigrid: ingesting stat areas from %s", statAreasPath)
	saReader, err := griddata.NewShpShapeReader(statAreasPath, "SAREA")
	if err != nil {
		return err
	}
	defer saReader.Close()
	statAreas, err := griddata.LoadStatAreas(saReader, cellSize)
	if err != nil {
		return err
	}

	tripTypeTable := effort.DefaultTripTypeGearMapping()
	if mappingsPath := cfg.GetString("mappings-file"); mappingsPath != "" {
		f, err := os.Open(mappingsPath)
		if err != nil {
			return &ConfigError{Reason: fmt.Sprintf("opening mappings file: %v", err)}
		}
		tripTypeTable, err = effort.LoadTripTypeMapping(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	log.Printf("sasigrid: ingesting raw efforts from %s", rawEffortsPath)
	rawEffortsFile, err := os.Open(rawEffortsPath)
	if err != nil {
		return &ConfigError{Reason: fmt.Sprintf("opening raw efforts file: %v", err)}
	}
	defer rawEffortsFile.Close()

	var reader effort.RowReader
	reader, err = effort.NewCSVRowReader(rawEffortsFile)
	if err != nil {
		return err
	}
	if limit := cfg.GetInt("effort-limit"); limit > 0 {
		reader = &effort.LimitReader{Reader: reader, Limit: limit}
	}

	mapper := &effort.Mapper{Mappings: effort.DefaultMappings(tripTypeTable)}
	ingestor := &effort.Ingestor{Reader: reader, Mapper: mapper}

	engineCfg := gridder.Config{
		KeyAttrs:   effort.DefaultKeyAttrs,
		ValueAttrs: effort.DefaultValueAttrs,
	}
	if cfg.GetBool("phase3-global-total") {
		engineCfg.Phase3Denominator = gridder.DenominatorGlobalTotal
	}
	engine := gridder.NewEngine(grid, statAreas, engineCfg)

	log.Printf("sasigrid: gridding")
	cValues, report, err := engine.Run(ingestor)
	if err != nil {
		return err
	}
	log.Printf("sasigrid: %d rows skipped for mapping errors", report.MappingErrorsSkipped)
	for _, d := range report.DroppedStatAreaMass {
		log.Printf("sasigrid: WARN: stat area %d: dropped %s/%s = %v (no cracked cell could take a share)",
			d.StatAreaID, d.Key, d.Attr, d.Value)
	}

	log.Printf("sasigrid: writing output to %s", outputPath)
	out, err := os.Create(outputPath)
	if err != nil {
		return &gridder.OutputError{Err: err}
	}
	defer out.Close()
	if err := gridder.WriteCSV(out, grid, cValues, effort.DefaultKeyAttrs, effort.DefaultValueAttrs); err != nil {
		return err
	}

	log.Printf("sasigrid: done, output file is %s", outputPath)
	return nil
}
