package wire

// Tag enumerates the closed set of message tags of spec.md §6. Tags
// partition into instruction tags (payload-free except BUILD_INDEX and
// UNLOAD_DATASET, which carry a dataset-id IDList), data tags, response
// tags (ACK/NACK), and result tags. The envelope format is uniform across all of
// them: {sourceRank, tag, payload-length, payload-bytes}.
type Tag int32

const (
	TagInvalid Tag = iota

	// Instruction tags. BUILD_INDEX and UNLOAD_DATASET carry an IDList
	// payload; the others carry none.
	TagFin
	TagPartitionInit
	TagLoadDataset
	TagBuildIndex
	TagUnloadDataset

	// Data tags.
	TagSysInfo
	TagDatasetMetadata
	TagPrepareDataset
	TagBatchPoint
	TagBatchLineString
	TagBatchRectangle
	TagBatchPolygon
	TagAprilCreate
	TagGlobalDataspace
	TagQuery
	TagQueryBatchRange
	TagQueryBatchKNN

	// Response tags.
	TagAck
	TagNack
	TagDatasetIndex
	TagQueryResult
	TagQueryBatchResult
)

func (t Tag) String() string {
	switch t {
	case TagFin:
		return "FIN"
	case TagPartitionInit:
		return "PARTITION_INIT"
	case TagLoadDataset:
		return "LOAD_DATASET"
	case TagBuildIndex:
		return "BUILD_INDEX"
	case TagUnloadDataset:
		return "UNLOAD_DATASET"
	case TagSysInfo:
		return "SYS_INFO"
	case TagDatasetMetadata:
		return "DATASET_METADATA"
	case TagPrepareDataset:
		return "PREPARE_DATASET"
	case TagBatchPoint:
		return "BATCH_POINT"
	case TagBatchLineString:
		return "BATCH_LINESTRING"
	case TagBatchRectangle:
		return "BATCH_RECTANGLE"
	case TagBatchPolygon:
		return "BATCH_POLYGON"
	case TagAprilCreate:
		return "APRIL_CREATE"
	case TagGlobalDataspace:
		return "GLOBAL_DATASPACE"
	case TagQuery:
		return "QUERY"
	case TagQueryBatchRange:
		return "QUERY_BATCH_RANGE"
	case TagQueryBatchKNN:
		return "QUERY_BATCH_KNN"
	case TagAck:
		return "ACK"
	case TagNack:
		return "NACK"
	case TagDatasetIndex:
		return "DATASET_INDEX"
	case TagQueryResult:
		return "QUERY_RESULT"
	case TagQueryBatchResult:
		return "QUERY_BATCH_RESULT"
	default:
		return "INVALID"
	}
}

// IsInstruction reports whether t is an instruction tag (BUILD_INDEX and
// UNLOAD_DATASET among them carry an IDList payload).
func (t Tag) IsInstruction() bool {
	switch t {
	case TagFin, TagPartitionInit, TagLoadDataset, TagBuildIndex, TagUnloadDataset:
		return true
	default:
		return false
	}
}

// IsResponse reports whether t is ACK/NACK/a result tag.
func (t Tag) IsResponse() bool {
	switch t {
	case TagAck, TagNack, TagDatasetIndex, TagQueryResult, TagQueryBatchResult:
		return true
	default:
		return false
	}
}

// BatchTagForDataType returns the BATCH_* tag for a geometry.DataType value
// (kept as a plain int here to avoid an import cycle; geometry.DataType's
// numeric encoding matches this order: point, line, rectangle, polygon).
func BatchTagForDataType(dataType int32) Tag {
	switch dataType {
	case 0:
		return TagBatchPoint
	case 1:
		return TagBatchLineString
	case 2:
		return TagBatchRectangle
	case 3:
		return TagBatchPolygon
	default:
		return TagInvalid
	}
}
