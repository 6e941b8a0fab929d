// Package dataset implements the Dataset/Section data model and lifecycle
// of spec.md §3 and §4.4: prepare, partition (local class assignment and
// two-layer index build), build-index (APRIL generation), and unload.
package dataset

import (
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/spatialjoin/april"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/twolayer"
)

// FileType is the input encoding prepareDataset accepts (spec.md §6
// "prepareDataset ... fileType ∈ {WKT,CSV,BINARY}").
type FileType int32

const (
	WKT FileType = iota
	CSV
	Binary
)

// Section scopes APRIL generation to a rectangular sub-region of the
// dataspace (spec.md §3 "Section"). The current design uses a single
// section per dataset (sectionId=0); see DESIGN.md's Open Question entry.
type Section struct {
	SectionID int32
	I, J      int32
	Bounds    geometry.MBR
}

// AprilConfig fixes the rasterization parameters for a dataset (spec.md §3
// "AprilConfig"): only uncompressed storage and a single section are
// currently supported.
type AprilConfig struct {
	Enabled  bool
	Order    uint
	Sections int32
}

// lifecycleState tracks which operations a Dataset has been through, so a
// query against an un-built dataset fails fast with a status.Query error
// rather than silently returning an empty result.
type lifecycleState int32

const (
	statePrepared lifecycleState = iota
	statePartitioned
	stateIndexed
	stateUnloaded
)

// Dataset is the in-memory representation of spec.md §3 "Dataset": an
// internal id, optional nickname, its geometry variant, ingestion source,
// dataspace bounds, the object arena, and the built two-layer/APRIL
// indices.
type Dataset struct {
	InternalID int32
	Nickname   string
	DataType   geometry.DataType
	FileType   FileType
	Path       string
	Persist    bool

	Bounds         geometry.MBR
	boundsExplicit bool

	Objects map[uint64]*geometry.Shape

	Grid  partition.Grid
	Index *twolayer.Index

	April      AprilConfig
	AprilStore *april.Store

	Sections   []Section
	sectionIdx *sectionIndex

	state lifecycleState
}

// Section looks up a Section by id via the dataset's ordered section index.
func (d *Dataset) Section(id int32) *Section {
	if d.sectionIdx == nil {
		return nil
	}
	return d.sectionIdx.get(id)
}

// CommonSectionIDs returns the section ids present in both d and other,
// ascending (spec.md §4.3: "the filter iterates the common section ids
// between R and S object").
func (d *Dataset) CommonSectionIDs(other *Dataset) []int32 {
	if d.sectionIdx == nil || other.sectionIdx == nil {
		return nil
	}
	return d.sectionIdx.commonSectionIDs(other.sectionIdx)
}

// New constructs a freshly-prepared Dataset (spec.md §6 "prepareDataset").
// If explicitBounds is the zero MBR, bounds are inferred by a streaming
// pass over the ingested geometry before partition runs (SPEC_FULL.md
// supplemented feature 5), rather than at prepare time.
func New(id int32, nickname string, dataType geometry.DataType, fileType FileType, path string, persist bool, explicitBounds geometry.MBR) *Dataset {
	d := &Dataset{
		InternalID: id,
		Nickname:   nickname,
		DataType:   dataType,
		FileType:   fileType,
		Path:       path,
		Persist:    persist,
		Objects:    make(map[uint64]*geometry.Shape),
		state:      statePrepared,
		Sections:   []Section{{SectionID: 0}},
		sectionIdx: newSectionIndex(),
	}
	d.sectionIdx.insert(&d.Sections[0])
	if !explicitBounds.Empty() {
		d.Bounds = explicitBounds
		d.boundsExplicit = true
	}
	return d
}

// Ingest adds shape to the dataset's object arena (spec.md §3 Dataset:
// "map of objectId→Shape"). If bounds were not given explicitly, Ingest
// widens the inferred dataspace bounds (SPEC_FULL.md supplemented feature
// 5's streaming inference pass).
func (d *Dataset) Ingest(shape *geometry.Shape) error {
	if d.state != statePrepared {
		return status.New(status.Data, "dataset: cannot ingest after partition", "datasetId", d.InternalID)
	}
	if _, exists := d.Objects[shape.RecID]; exists {
		return status.New(status.Data, "dataset: duplicate object id", "recId", shape.RecID)
	}
	d.Objects[shape.RecID] = shape
	if !d.boundsExplicit {
		if len(d.Objects) == 1 {
			d.Bounds = shape.MBR
		} else {
			d.Bounds = d.Bounds.Union(shape.MBR)
		}
	}
	return nil
}

// TotalObjects is the object count (spec.md §3 Dataset "totalObjects").
func (d *Dataset) TotalObjects() int { return len(d.Objects) }

// Partition assigns every object to its grid's (cell, class) triples and
// builds the local twolayer.Index (spec.md §4.4 "Classification"). grid's
// Bounds should already reflect d.Bounds by the time this is called — the
// caller sets the dataspace-wide grid once bounds are known for every
// dataset being partitioned together (spec.md §4.1 GLOBAL_DATASPACE tag).
func (d *Dataset) Partition(grid partition.Grid) error {
	if d.state != statePrepared {
		return status.New(status.Partitioning, "dataset: partition called out of order", "datasetId", d.InternalID)
	}
	d.Grid = grid
	d.Index = twolayer.NewIndex()
	for _, shape := range d.Objects {
		cells := partition.ClassifyObject(grid, shape)
		if len(cells) == 0 {
			return status.New(status.Partitioning, "dataset: object does not intersect any cell", "recId", shape.RecID)
		}
		for _, oc := range cells {
			partitionID := oc.Cell.Flatten(grid.PartPPD)
			if err := shape.AddPartition(geometry.PartitionRef{PartitionID: partitionID, Class: oc.Class}); err != nil {
				return status.Wrap(status.Partitioning, err)
			}
			cellBounds := grid.DistCellBounds(oc.Cell.DistCellID)
			if grid.Method == partition.TwoGrid {
				for _, cb := range grid.Cells(shape.MBR) {
					if cb.Cell == oc.Cell {
						cellBounds = cb.Bounds
						break
					}
				}
			}
			d.Index.GetOrCreate(partitionID, cellBounds).Add(shape, oc.Class)
		}
	}
	d.state = statePartitioned
	return nil
}

// aprilApplicable reports whether spec.md §4.5's "If APRIL is configured
// and applicable (polygon or line)" condition holds for this dataset.
func (d *Dataset) aprilApplicable() bool {
	return d.DataType == geometry.Polygon || d.DataType == geometry.LineString
}

// BuildIndex sorts every partition's A/C class sequences and, if APRIL is
// configured and this dataset's variant admits it, rasterizes every object
// into the APRIL store (spec.md §4.2 "Structure", §4.3, §3 "Lifecycles":
// "APRIL entries exist from build-index ... until dataset destruction").
func (d *Dataset) BuildIndex() error {
	if d.state != statePartitioned {
		return status.New(status.Partitioning, "dataset: build-index called out of order", "datasetId", d.InternalID)
	}
	d.Index.BuildIndex()

	if d.April.Enabled && d.aprilApplicable() {
		d.AprilStore = april.NewStore()
		cfg := april.Config{Order: d.April.Order, MinX: d.Bounds.XMin, MinY: d.Bounds.YMin, MaxX: d.Bounds.XMax, MaxY: d.Bounds.YMax}
		// Rasterize is CPU-bound per object and independent across objects;
		// fan it out the way cluster/host.go fans out per-rank requests.
		// april.Store is shard-and-mutex protected for exactly this.
		shapes := make([]*geometry.Shape, 0, len(d.Objects))
		for _, s := range d.Objects {
			shapes = append(shapes, s)
		}
		_ = traverse.Each(len(shapes), func(i int) error {
			shape := shapes[i]
			data := april.Rasterize(cfg, shape)
			d.AprilStore.Put(april.StoreKey{SectionID: 0, ObjectID: shape.RecID}, data)
			return nil
		})
	}
	d.state = stateIndexed
	return nil
}

// Ready reports whether the dataset has completed build-index and can
// serve queries.
func (d *Dataset) Ready() bool { return d.state == stateIndexed }

// Unload releases the dataset's in-memory state (spec.md §3 "Lifecycles":
// "destroyed by unload or process termination").
func (d *Dataset) Unload() {
	d.Objects = nil
	d.Index = nil
	d.AprilStore = nil
	d.state = stateUnloaded
}
