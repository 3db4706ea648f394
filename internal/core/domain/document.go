package domain

// Chunk is one contiguous piece of a document produced by the chunker.
// Index is the zero-based position within the document; chunk order is
// what "adjacent" means for relationship extraction.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Entity is a named entity extracted from chunk or query text
type Entity struct {
	Name        string  `json:"name"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Relationship links two extracted entities by name.
// Source and Target are entity surface forms, not IDs; they resolve to
// graph nodes only when both entities were seen in the same document.
type Relationship struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// ChunkMetadata is the payload stored alongside a chunk vector
type ChunkMetadata struct {
	DocumentID string   `json:"document_id"`
	ChunkIndex int      `json:"chunk_index"`
	Text       string   `json:"text"`
	Entities   []Entity `json:"entities,omitempty"`
}
