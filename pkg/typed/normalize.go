package typed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/silt/pkg/core"
)

// DocumentModel is a typed view of a stored document. The repository's
// managed fields are lifted out of the raw map; everything else lands in
// Data via a JSON round-trip.
type DocumentModel[T any] struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      T
}

// normalizeInsert runs the write pipeline for one input: validate,
// encode, assign identifier, stamp timestamps. Nothing here touches
// storage, so a failure never leaves partial state behind.
func (r *Repository[T]) normalizeInsert(input T) (core.Document, error) {
	if r.validator != nil {
		if err := r.validator.Validate(input); err != nil {
			return nil, &core.ValidationError{Err: err}
		}
	}

	doc, err := encode(input)
	if err != nil {
		return nil, &core.ValidationError{Err: err}
	}

	if doc.ID() == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate identifier: %w", err)
		}
		doc[core.IDField] = id.String()
	}

	if r.timestamps {
		now := r.clock.Now()
		doc[core.CreatedAtField] = now
		doc[core.UpdatedAtField] = now
	}
	return doc, nil
}

// NormalizeUpdate returns a copy of update whose $set clause stamps
// updatedAt with now. A $set clause is created when none exists, and a
// caller-supplied updatedAt is overwritten. The caller's maps are never
// mutated.
func NormalizeUpdate(update core.Update, now time.Time) core.Update {
	out := make(core.Update, len(update)+1)
	for k, v := range update {
		out[k] = v
	}

	set := make(map[string]any)
	switch prev := out["$set"].(type) {
	case map[string]any:
		for k, v := range prev {
			set[k] = v
		}
	case core.Document:
		for k, v := range prev {
			set[k] = v
		}
	case core.Update:
		for k, v := range prev {
			set[k] = v
		}
	}
	set[core.UpdatedAtField] = now
	out["$set"] = set
	return out
}

// encode converts a typed input into a raw document via a JSON
// round-trip, the same trick the typed wrapper uses for reads.
func encode[T any](input T) (core.Document, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}
	var doc core.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("input is not a document shape: %w", err)
	}
	if doc == nil {
		doc = core.Document{}
	}
	return doc, nil
}

// decode converts a raw document into the typed model. Managed fields are
// read directly; the whole map is round-tripped into T so the type can
// pick up whichever fields it declares.
func decode[T any](doc core.Document) (*DocumentModel[T], error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type: %w", err)
	}

	return &DocumentModel[T]{
		ID:        doc.ID(),
		CreatedAt: asTime(doc[core.CreatedAtField]),
		UpdatedAt: asTime(doc[core.UpdatedAtField]),
		Data:      data,
	}, nil
}

// asTime tolerates both native instants and their JSON string form.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
