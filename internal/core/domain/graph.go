package domain

import (
	"path/filepath"
	"time"
)

// Graph node labels
const (
	NodeLabelDocument = "Document"
	NodeLabelChunk    = "Chunk"
	NodeLabelEntity   = "Entity"
)

// Graph relation types
const (
	RelationContains  = "CONTAINS"
	RelationMentions  = "MENTIONS"
	RelationRelatedTo = "RELATED_TO"
)

// chunkPreviewLen caps the chunk text stored on graph nodes; the full
// text lives in the vector store metadata.
const chunkPreviewLen = 1000

// GraphNode is a node to be written to the knowledge graph. Nodes are
// built through the typed constructors below so every node carries the
// properties its label requires.
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is a directed edge between two graph nodes
type GraphEdge struct {
	SourceID     string         `json:"source_id"`
	TargetID     string         `json:"target_id"`
	RelationType string         `json:"relation_type"`
	Properties   map[string]any `json:"properties"`
}

// NewDocumentNode builds the node representing a processed document
func NewDocumentNode(documentID, filePath string, processedAt time.Time) GraphNode {
	return GraphNode{
		ID:    documentID,
		Label: NodeLabelDocument,
		Properties: map[string]any{
			"file_path":    filePath,
			"file_name":    filepath.Base(filePath),
			"processed_at": processedAt.Format(time.RFC3339),
		},
	}
}

// NewChunkNode builds the node for one document chunk. The node ID is
// the chunk key, which also addresses the chunk's vector.
func NewChunkNode(documentID string, index int, text string) GraphNode {
	key := ChunkKey(documentID, index)
	preview := text
	if len(preview) > chunkPreviewLen {
		preview = preview[:chunkPreviewLen]
	}
	return GraphNode{
		ID:    key,
		Label: NodeLabelChunk,
		Properties: map[string]any{
			"document_id":   documentID,
			"chunk_index":   index,
			"text":          preview,
			"embedding_key": key,
		},
	}
}

// NewEntityNode builds the node for an extracted entity. The node ID is
// derived from the entity name, so repeated mentions of the same surface
// form map to one node.
func NewEntityNode(e Entity) GraphNode {
	label := e.Type
	if label == "" {
		label = NodeLabelEntity
	}
	return GraphNode{
		ID:    EntityID(e.Name),
		Label: label,
		Properties: map[string]any{
			"name":        e.Name,
			"description": e.Description,
			"type":        label,
		},
	}
}

// NewContainsEdge links a document to one of its chunks
func NewContainsEdge(documentID, chunkID string, index int) GraphEdge {
	return GraphEdge{
		SourceID:     documentID,
		TargetID:     chunkID,
		RelationType: RelationContains,
		Properties: map[string]any{
			"chunk_index": index,
		},
	}
}

// NewMentionsEdge links a chunk to an entity it mentions. A confidence
// of zero means the extractor did not score the mention and is treated
// as full confidence.
func NewMentionsEdge(chunkID, entityID string, confidence float64) GraphEdge {
	if confidence <= 0 {
		confidence = 1.0
	}
	return GraphEdge{
		SourceID:     chunkID,
		TargetID:     entityID,
		RelationType: RelationMentions,
		Properties: map[string]any{
			"confidence": confidence,
		},
	}
}

// NewRelationshipEdge links two entity nodes from an extracted
// relationship. Endpoint IDs are derived from the entity names; callers
// must ensure both endpoints exist before storing the edge.
func NewRelationshipEdge(rel Relationship) GraphEdge {
	relType := rel.Type
	if relType == "" {
		relType = RelationRelatedTo
	}
	confidence := rel.Confidence
	if confidence <= 0 {
		confidence = 1.0
	}
	return GraphEdge{
		SourceID:     EntityID(rel.Source),
		TargetID:     EntityID(rel.Target),
		RelationType: relType,
		Properties: map[string]any{
			"description": rel.Description,
			"confidence":  confidence,
		},
	}
}
