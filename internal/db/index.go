package db

import "errors"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldTag is a tag field.
	IndexFieldTag IndexFieldType = iota
	// IndexFieldText is a text field.
	IndexFieldText
	// IndexFieldVector is a FLAT cosine vector field.
	IndexFieldVector
)

// IndexField describes a single field in an FT index schema. Vector fields
// always use the FLAT algorithm with cosine distance: the corpus is small and
// rebuilt wholesale, so exact brute-force search matches the flat driver's
// semantics.
type IndexField struct {
	Name      string
	Type      IndexFieldType
	VectorDim int
}

// IndexDefinition is a complete FT index definition used by FT.CREATE over
// hash documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	for _, f := range idx.Fields {
		if f.Name == "" {
			return errors.New("field name is required")
		}
		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return errors.New("vector field requires positive DIM")
		}
	}
	return nil
}
