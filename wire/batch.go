package wire

// Batch is the unit of bulk geometry transfer of spec.md §6: a
// homogeneously-typed collection of objects, each carrying its partition
// assignments and its vertex coordinates. One Batch corresponds to one
// BATCH_{POINT,LINESTRING,RECTANGLE,POLYGON} message, the DataType being
// carried by the envelope's Tag rather than repeated per object.
//
// Payload layout (spec.md §6):
//
//	dataType    int32
//	objectCount uint64
//	objects[objectCount]:
//	  recId          uint64
//	  partitionCount int32
//	  partitions[partitionCount]:
//	    cellId int32
//	    class  int32
//	  vertexCount int32
//	  coords[vertexCount]:
//	    x float64
//	    y float64
type Batch struct {
	DataType int32
	Objects  []BatchObject
}

// Partition is a single (cellId, class) assignment of an object, per the
// two-layer index's class bucketing (spec.md §3: classes A/B/C/D).
type Partition struct {
	CellID int32
	Class  int32
}

// BatchObject is one geometry record within a Batch.
type BatchObject struct {
	RecID      uint64
	Partitions []Partition
	Coords     []Coord
}

// Coord is a single (x,y) vertex.
type Coord struct {
	X, Y float64
}

// Marshal encodes b into the spec.md §6 payload layout.
func (b Batch) Marshal() []byte {
	sizeHint := 12
	for _, obj := range b.Objects {
		sizeHint += 8 + 4 + len(obj.Partitions)*8 + 4 + len(obj.Coords)*16
	}
	buf := newWriteBuffer(sizeHint)
	buf.PutInt32(b.DataType)
	buf.PutUint64(uint64(len(b.Objects)))
	for _, obj := range b.Objects {
		buf.PutUint64(obj.RecID)
		buf.PutInt32(int32(len(obj.Partitions)))
		for _, p := range obj.Partitions {
			buf.PutInt32(p.CellID)
			buf.PutInt32(p.Class)
		}
		buf.PutInt32(int32(len(obj.Coords)))
		for _, c := range obj.Coords {
			buf.PutFloat64(c.X)
			buf.PutFloat64(c.Y)
		}
	}
	return buf.Finish()
}

// UnmarshalBatch decodes a Batch payload produced by Batch.Marshal.
func UnmarshalBatch(data []byte) Batch {
	buf := newBuffer(data)
	b := Batch{DataType: buf.Int32()}
	objectCount := buf.Uint64()
	b.Objects = make([]BatchObject, objectCount)
	for i := range b.Objects {
		obj := &b.Objects[i]
		obj.RecID = buf.Uint64()
		if partitionCount := buf.Int32(); partitionCount > 0 {
			obj.Partitions = make([]Partition, partitionCount)
			for j := range obj.Partitions {
				obj.Partitions[j] = Partition{CellID: buf.Int32(), Class: buf.Int32()}
			}
		}
		if vertexCount := buf.Int32(); vertexCount > 0 {
			obj.Coords = make([]Coord, vertexCount)
			for j := range obj.Coords {
				obj.Coords[j] = Coord{X: buf.Float64(), Y: buf.Float64()}
			}
		}
	}
	return b
}

// Len reports the number of objects in the batch, used by partition/ to
// decide when to flush an accumulating Batch at the configured batch size.
func (b Batch) Len() int { return len(b.Objects) }
