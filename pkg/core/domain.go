// Document is the central entity of the domain.
package core

// Document is the raw representation of a stored record: a mapping from
// field name to value. The identifier lives under IDField and is assigned
// by the repository layer when absent.
type Document map[string]any

// Filter selects documents. A plain value means equality; an operator map
// such as {"age": {"$gt": 20}} applies comparison operators.
type Filter map[string]any

// Update describes a mutation in operator form, e.g. {"$set": {"name": "x"}}.
type Update map[string]any

// Reserved field names managed by the repository layer.
const (
	IDField        = "_id"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// ID returns the document identifier, or "" when unset.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// SortField orders results by a single field.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions shapes a multi-document read. The stages are applied in a
// fixed order: projection, then sort, then skip, then limit.
type FindOptions struct {
	// Projection is an inclusion list of fields. The identifier is always
	// retained. Empty means all fields.
	Projection []string
	Sort       []SortField
	Skip       int64
	Limit      int64
}
