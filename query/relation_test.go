package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/spatialjoin/geometry"
)

func TestClassifyRelationEquals(t *testing.T) {
	var m geometry.Mask
	m.Present[0][0] = true // interior/interior
	assert.Equal(t, geometry.PredicateEquals, classifyRelation(m, geometry.RelationEqual))
}

func TestClassifyRelationFallsBackToIntersects(t *testing.T) {
	var m geometry.Mask
	m.Present[0][0] = true
	m.Present[1][1] = true
	assert.Equal(t, geometry.PredicateIntersects, classifyRelation(m, geometry.RelationCross))
}

func TestClassifyRelationMeets(t *testing.T) {
	var m geometry.Mask
	m.Present[1][1] = true // boundary/boundary only, no interior contact
	assert.Equal(t, geometry.PredicateMeets, classifyRelation(m, geometry.RelationIntersect))
}
