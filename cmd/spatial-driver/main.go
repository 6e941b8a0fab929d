// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
spatial-driver loads one or two datasets into an in-process spatial join
cluster, partitions and indexes them, runs one range, join, or kNN query
against them, and prints the merged result plus a per-stage timing report. The Driver,
Host Controller, Worker Controllers, and Agents this binary drives all run
as goroutines of this one OS process (cluster.NewDriver), since the module
only ships an in-process Transport (cluster.ChanTransport) -- there is no
separate spatial-host/spatial-controller/spatial-agent binary to launch
against a real network in this deployment.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/spatialjoin/cluster"
	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/wire"
)

func init() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

var (
	workers      = flag.Int("workers", 4, "Number of simulated Worker Controllers (rank 1 is the Host's own Agent)")
	rightPath    = flag.String("right", "", "Right-hand dataset path; if set, runs a join query instead of range/kNN")
	dataType     = flag.String("type", "point", "Geometry type of the input dataset(s): point, linestring, rectangle, polygon")
	fileType     = flag.String("file-type", "wkt", "Input file encoding: wkt, csv, binary")
	distPPD      = flag.Int("dist-ppd", 8, "Distribution grid cells per dimension")
	partPPD      = flag.Int("part-ppd", 4, "Fine grid cells per distribution cell, per dimension (two-grid partitioning only)")
	method       = flag.String("partition-method", "round-robin", "Partitioning method: round-robin or two-grid")
	aprilEnabled = flag.Bool("april", false, "Build an APRIL store alongside the two-layer index")
	aprilOrder   = flag.Int("april-order", 12, "APRIL rasterization Hilbert curve order")
	predicate    = flag.String("predicate", "intersects", "Join predicate: intersects, disjoint, inside, contains, coveredby, covers, meets, equals")
	rangeWindow  = flag.String("range", "", "Range query window, as xmin,ymin,xmax,ymax; mutually exclusive with -right and -knn")
	knnPoint     = flag.String("knn", "", "kNN reference point, as x,y; mutually exclusive with -right and -range")
	knnK         = flag.Int("k", 5, "k for a -knn query")
	resultType   = flag.String("result", "count", "Result shape: count or collect")
)

func driverUsage() {
	fmt.Printf("Usage: %s [OPTIONS] leftpath\n", os.Args[0])
	fmt.Printf("Runs a range, join, or kNN query against one or two partitioned datasets.\n")
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func parseDataType(s string) (geometry.DataType, error) {
	switch strings.ToLower(s) {
	case "point":
		return geometry.Point, nil
	case "linestring":
		return geometry.LineString, nil
	case "rectangle":
		return geometry.Rectangle, nil
	case "polygon":
		return geometry.Polygon, nil
	default:
		return 0, fmt.Errorf("spatial-driver: unknown -type %q", s)
	}
}

func parseFileType(s string) (dataset.FileType, error) {
	switch strings.ToLower(s) {
	case "wkt":
		return dataset.WKT, nil
	case "csv":
		return dataset.CSV, nil
	case "binary":
		return dataset.Binary, nil
	default:
		return 0, fmt.Errorf("spatial-driver: unknown -file-type %q", s)
	}
}

func parseMethod(s string) (partition.Method, error) {
	switch strings.ToLower(s) {
	case "round-robin":
		return partition.RoundRobin, nil
	case "two-grid":
		return partition.TwoGrid, nil
	default:
		return 0, fmt.Errorf("spatial-driver: unknown -partition-method %q", s)
	}
}

func parsePredicate(s string) (geometry.Predicate, error) {
	switch strings.ToLower(s) {
	case "intersects":
		return geometry.PredicateIntersects, nil
	case "disjoint":
		return geometry.PredicateDisjoint, nil
	case "inside":
		return geometry.PredicateInside, nil
	case "contains":
		return geometry.PredicateContains, nil
	case "coveredby":
		return geometry.PredicateCoveredBy, nil
	case "covers":
		return geometry.PredicateCovers, nil
	case "meets":
		return geometry.PredicateMeets, nil
	case "equals":
		return geometry.PredicateEquals, nil
	default:
		return 0, fmt.Errorf("spatial-driver: unknown -predicate %q", s)
	}
}

func parseResultType(s string, knn bool) (wire.ResultType, error) {
	if knn {
		return wire.ResultKNN, nil
	}
	switch strings.ToLower(s) {
	case "count":
		return wire.ResultCount, nil
	case "collect":
		return wire.ResultCollect, nil
	default:
		return 0, fmt.Errorf("spatial-driver: unknown -result %q", s)
	}
}

func parseMBR(s string) (geometry.MBR, error) {
	var xmin, ymin, xmax, ymax float64
	if _, err := fmt.Sscanf(s, "%g,%g,%g,%g", &xmin, &ymin, &xmax, &ymax); err != nil {
		return geometry.MBR{}, fmt.Errorf("spatial-driver: malformed range window %q: %v", s, err)
	}
	return geometry.MBR{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}, nil
}

func parsePoint(s string) (geometry.Vertex, error) {
	var x, y float64
	if _, err := fmt.Sscanf(s, "%g,%g", &x, &y); err != nil {
		return geometry.Vertex{}, fmt.Errorf("spatial-driver: malformed point %q: %v", s, err)
	}
	return geometry.Vertex{X: x, Y: y}, nil
}

// loadShapes reads path into memory using dataset's own file-reading code
// path (dataset.Dataset.LoadFromFile), purely as a flat-file decoder here:
// the Dataset this constructs never joins the cluster itself, it is
// discarded once its Objects have been handed to cluster.Driver.Partition,
// which is the actual distributed ingest spec.md §4.4 describes.
func loadShapes(ctx context.Context, path string, dt geometry.DataType, ft dataset.FileType) ([]*geometry.Shape, geometry.MBR, error) {
	d := dataset.New(0, "", dt, ft, path, false, geometry.MBR{})
	if err := d.LoadFromFile(ctx); err != nil {
		return nil, geometry.MBR{}, err
	}
	shapes := make([]*geometry.Shape, 0, len(d.Objects))
	for _, s := range d.Objects {
		shapes = append(shapes, s)
	}
	return shapes, d.Bounds, nil
}

func main() {
	flag.Usage = driverUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Missing positional argument (leftpath required); please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	leftPath := flag.Arg(0)

	dt, err := parseDataType(*dataType)
	if err != nil {
		log.Fatalf("%v", err)
	}
	ft, err := parseFileType(*fileType)
	if err != nil {
		log.Fatalf("%v", err)
	}
	pm, err := parseMethod(*method)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := vcontext.Background()
	d := cluster.NewDriver(int32(*workers))

	leftObjects, leftBounds, err := loadShapes(ctx, leftPath, dt, ft)
	if err != nil {
		log.Fatalf("%v", err)
	}
	leftID, err := d.PrepareDataset("left", dt, ft, leftPath, false, leftBounds)
	if err != nil {
		log.Fatalf("%v", err)
	}
	grid := partition.Grid{Method: pm, Bounds: leftBounds, DistPPD: int32(*distPPD), PartPPD: int32(*partPPD)}
	aprilCfg := dataset.AprilConfig{Enabled: *aprilEnabled, Order: uint(*aprilOrder)}
	if err := d.Partition(leftID, grid, aprilCfg, leftObjects, dt); err != nil {
		log.Fatalf("%v", err)
	}
	datasetIDs := []int32{leftID}

	var q query.Query
	switch {
	case *rightPath != "":
		rightObjects, rightBounds, err := loadShapes(ctx, *rightPath, dt, ft)
		if err != nil {
			log.Fatalf("%v", err)
		}
		rightID, err := d.PrepareDataset("right", dt, ft, *rightPath, false, rightBounds)
		if err != nil {
			log.Fatalf("%v", err)
		}
		rightGrid := partition.Grid{Method: pm, Bounds: rightBounds, DistPPD: int32(*distPPD), PartPPD: int32(*partPPD)}
		if err := d.Partition(rightID, rightGrid, aprilCfg, rightObjects, dt); err != nil {
			log.Fatalf("%v", err)
		}
		datasetIDs = append(datasetIDs, rightID)

		pred, err := parsePredicate(*predicate)
		if err != nil {
			log.Fatalf("%v", err)
		}
		rt, err := parseResultType(*resultType, false)
		if err != nil {
			log.Fatalf("%v", err)
		}
		q = query.NewJoinQuery(1, leftID, rightID, pred, rt)

	case *knnPoint != "":
		pt, err := parsePoint(*knnPoint)
		if err != nil {
			log.Fatalf("%v", err)
		}
		q = query.NewKNNQuery(1, leftID, pt, *knnK)

	case *rangeWindow != "":
		window, err := parseMBR(*rangeWindow)
		if err != nil {
			log.Fatalf("%v", err)
		}
		rt, err := parseResultType(*resultType, false)
		if err != nil {
			log.Fatalf("%v", err)
		}
		q = query.NewRangeQuery(1, leftID, window, rt)

	default:
		log.Fatalf("spatial-driver: one of -right, -range, or -knn is required")
	}

	if err := d.BuildIndex(datasetIDs); err != nil {
		log.Fatalf("%v", err)
	}

	result, err := d.Query(q)
	if err != nil {
		log.Fatalf("%v", err)
	}
	printResult(result)

	if err := d.UnloadDataset(datasetIDs); err != nil {
		log.Error.Printf("spatial-driver: unload: %v", err)
	}
	if err := d.Finalize(); err != nil {
		log.Error.Printf("spatial-driver: finalize: %v", err)
	}
	fmt.Print(d.Report.String())
}

func printResult(r wire.QueryResult) {
	switch r.ResultType {
	case wire.ResultCount:
		fmt.Printf("count: %d\n", r.Count)
	case wire.ResultCollect:
		fmt.Printf("ids: %v\n", r.RecIDs)
	case wire.ResultKNN:
		for _, kr := range r.KNN {
			fmt.Printf("neighbors:\n")
			for _, n := range kr.Neighbors {
				fmt.Printf("  %d (distance %.6f)\n", n.RecID, n.Distance)
			}
		}
	}
	fmt.Printf("mbrCandidates: %d aprilCandidates: %d\n", r.Stats.MBRCandidates, r.Stats.AprilCandidates)
}
