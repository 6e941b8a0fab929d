package cluster

import (
	"sync"

	"github.com/grailbio/spatialjoin/status"
)

// DatasetRegistry is the Host-side nickname→internalId lookup table
// (SPEC_FULL.md supplemented feature 4), distinct from the numeric
// internalId every operation otherwise addresses datasets by. It lets a
// Driver re-resolve a dataset it prepared earlier by name, e.g. after a
// reconnect, without having kept the assigned id around itself.
type DatasetRegistry struct {
	mu       sync.Mutex
	byName   map[string]int32
	nextID   int32
}

// NewDatasetRegistry constructs an empty registry. Internal ids are
// assigned starting at 1; ranks in cluster/host.go also start at 1 (rank 1
// is the Host's own Agent), and dataset ids share no numbering with ranks, but
// starting datasets at 1 avoids the easy-to-misread id 0 in logs.
func NewDatasetRegistry() *DatasetRegistry {
	return &DatasetRegistry{byName: make(map[string]int32), nextID: 1}
}

// Assign allocates a fresh internal id for nickname. An empty nickname is
// valid (spec.md §6 prepareDataset does not require one) and is never
// registered for lookup, only counted.
func (r *DatasetRegistry) Assign(nickname string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	if nickname != "" {
		r.byName[nickname] = id
	}
	return id
}

// Resolve looks up a previously prepared dataset's internal id by nickname.
func (r *DatasetRegistry) Resolve(nickname string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[nickname]
	if !ok {
		return 0, status.New(status.Data, "cluster: unknown dataset nickname", nickname)
	}
	return id, nil
}

// Forget removes nickname from the registry (spec.md §6 unloadDataset).
func (r *DatasetRegistry) Forget(nickname string) {
	if nickname == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, nickname)
}
