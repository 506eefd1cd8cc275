package planeseg

import (
	"github.com/golang/geo/r3"

	"github.com/viam-labs/planeseg/logging"
	"github.com/viam-labs/planeseg/pointcloud"
)

// Pipeline is the top-level entry point: given an organized point cloud of
// fixed (Height, Width) shape, Process runs cell statistics, histogram
// seeding, region growing, plane merging, and (if enabled) boundary
// refinement, and returns a per-pixel plane-id label array (spec.md §5).
//
// A Pipeline is reusable across frames of the same shape; each Process call
// is independent and starts from fresh per-frame state.
type Pipeline struct {
	cfg           *Config
	height, width int
	logger        logging.Logger
}

// NewPipeline validates am against the recognized config keys and their
// constraints before any frame is processed, per spec.md §7's
// fail-before-work-begins requirement.
func NewPipeline(height, width int, am AttributeMap, logger logging.Logger) (*Pipeline, error) {
	if height <= 0 || width <= 0 {
		return nil, &InvalidConfigError{Reasons: []string{"height and width must be positive"}}
	}
	cfg, err := NewConfig(am)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNoop()
	}
	return &Pipeline{cfg: cfg, height: height, width: width, logger: logger.Named("planeseg")}, nil
}

// Process runs the full pipeline over one frame of points, a flat row-major
// (Height*Width) array matching the shape given to NewPipeline. The
// returned label array has one entry per input point, 0 meaning "no plane".
func (p *Pipeline) Process(points []r3.Vector) ([]int32, error) {
	if len(points) != p.height*p.width {
		return nil, &DimensionMismatchError{GotRows: len(points), WantRows: p.height * p.width}
	}
	oc, err := pointcloud.NewOrganized(p.height, p.width, points)
	if err != nil {
		return nil, err
	}

	cellMajor, hCells, wCells := pointcloud.CellMajor(oc, p.cfg.PatchSize)
	grid := NewCellGrid(cellMajor, hCells, wCells, p.cfg.PatchSize, p.cfg)
	p.logger.Debugw("built cell grid", "cells", grid.N(), "planar", len(grid.PlanarCells()))

	hist := NewHistogram(p.cfg, grid)
	segments, cellLabels, err := RegionGrower{}.Grow(grid, hist, p.cfg)
	if err != nil {
		return nil, err
	}
	p.logger.Debugw("region growing complete", "segments", len(segments))

	mergedSegments, mergedLabels := PlaneMerger{}.Merge(grid, segments, cellLabels, p.cfg)
	p.logger.Debugw("plane merging complete", "segments", len(mergedSegments))

	if !p.cfg.DoRefinement {
		return LabelWriter{}.WriteCellLabels(p.height, p.width, p.cfg.PatchSize, mergedLabels), nil
	}

	pixelLabels, kept := Refiner{}.Refine(cellMajor, grid, mergedSegments, p.cfg)
	if len(kept) < len(mergedSegments) {
		p.logger.Warnw("refinement dropped planes with empty eroded interior",
			"before", len(mergedSegments), "after", len(kept))
	}
	return LabelWriter{}.WriteRefined(p.height, p.width, p.cfg.PatchSize, pixelLabels), nil
}
