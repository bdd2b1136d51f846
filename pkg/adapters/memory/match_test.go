package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/silt/pkg/core"
)

func TestMatchesEquality(t *testing.T) {
	doc := core.Document{"name": "John", "age": 30}

	assert.True(t, matches(doc, core.Filter{}))
	assert.True(t, matches(doc, core.Filter{"name": "John"}))
	assert.False(t, matches(doc, core.Filter{"name": "Jane"}))
	assert.False(t, matches(doc, core.Filter{"missing": "x"}))
	// Numeric types compare across representations (JSON decodes to float64).
	assert.True(t, matches(doc, core.Filter{"age": float64(30)}))
}

func TestMatchesOperators(t *testing.T) {
	doc := core.Document{"age": 30, "name": "John"}

	cases := []struct {
		name   string
		filter core.Filter
		want   bool
	}{
		{"gt true", core.Filter{"age": map[string]any{"$gt": 20}}, true},
		{"gt false", core.Filter{"age": map[string]any{"$gt": 30}}, false},
		{"gte edge", core.Filter{"age": map[string]any{"$gte": 30}}, true},
		{"lt false", core.Filter{"age": map[string]any{"$lt": 30}}, false},
		{"lte edge", core.Filter{"age": map[string]any{"$lte": 30}}, true},
		{"ne", core.Filter{"age": map[string]any{"$ne": 25}}, true},
		{"eq", core.Filter{"age": map[string]any{"$eq": 30}}, true},
		{"in", core.Filter{"name": map[string]any{"$in": []any{"John", "Jane"}}}, true},
		{"nin", core.Filter{"name": map[string]any{"$nin": []any{"Jane"}}}, true},
		{"exists true", core.Filter{"age": map[string]any{"$exists": true}}, true},
		{"exists false", core.Filter{"ghost": map[string]any{"$exists": false}}, true},
		{"missing field gt", core.Filter{"ghost": map[string]any{"$gt": 1}}, false},
		{"combined range", core.Filter{"age": map[string]any{"$gt": 20, "$lt": 40}}, true},
		{"unknown operator", core.Filter{"age": map[string]any{"$regex": "3.*"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matches(doc, tc.filter))
		})
	}
}

func TestMatchesInstants(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	doc := core.Document{"createdAt": late}

	assert.True(t, matches(doc, core.Filter{"createdAt": map[string]any{"$gt": early}}))
	assert.False(t, matches(doc, core.Filter{"createdAt": map[string]any{"$lt": early}}))
}

func TestMatchesLiteralSubdocument(t *testing.T) {
	doc := core.Document{"meta": map[string]any{"kind": "a"}}

	// A map without $-keys is a literal equality test, not an operator doc.
	assert.True(t, matches(doc, core.Filter{"meta": map[string]any{"kind": "a"}}))
	assert.False(t, matches(doc, core.Filter{"meta": map[string]any{"kind": "b"}}))
}
