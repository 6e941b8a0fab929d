package dataset

import (
	"github.com/biogo/store/llrb"
)

// sectionKey adapts Section's SectionID to llrb.Comparable, the teacher's
// own indexing idiom for "look up a record by an ordered key" (grounded on
// encoding/bampair/shard_info.go's ShardInfo.byKey tree). APRIL's Open
// Question recommends single-section today but a key threaded through a
// tree rather than a bare slice index means multi-section is a config
// change, not a rewrite.
type sectionKey struct {
	id      int32
	section *Section
}

func (k sectionKey) Compare(other llrb.Comparable) int {
	o := other.(sectionKey)
	return int(k.id - o.id)
}

// sectionIndex is an ordered, SectionID-keyed lookup structure over a
// dataset's sections.
type sectionIndex struct {
	tree llrb.Tree
}

func newSectionIndex() *sectionIndex { return &sectionIndex{} }

func (si *sectionIndex) insert(s *Section) {
	si.tree.Insert(sectionKey{id: s.SectionID, section: s})
}

// get returns the section with the given id, or nil if none is indexed.
func (si *sectionIndex) get(id int32) *Section {
	found := si.tree.Get(sectionKey{id: id})
	if found == nil {
		return nil
	}
	return found.(sectionKey).section
}

// commonSectionIDs returns the section ids present in both si and other,
// ascending, the traversal query/ uses to restrict APRIL lookups to the
// sections two datasets actually share (spec.md §4.3 "the filter iterates
// the common section ids between R and S").
func (si *sectionIndex) commonSectionIDs(other *sectionIndex) []int32 {
	var ids []int32
	si.tree.Do(func(c llrb.Comparable) bool {
		id := c.(sectionKey).id
		if other.get(id) != nil {
			ids = append(ids, id)
		}
		return false
	})
	return ids
}
