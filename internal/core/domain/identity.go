package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ContentHash returns a stable hex digest of the given text.
// It is used for content-addressed cache subkeys and entity IDs, so the
// same text always maps to the same key across processes and restarts.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a deterministic document ID from the file path and
// its modification time. Reprocessing an unchanged file yields the same
// ID; touching the file yields a new one.
func DocumentID(path string, mtime time.Time) string {
	return "doc:" + ContentHash(path+":"+strconv.FormatInt(mtime.UnixNano(), 10))
}

// EntityID derives a deterministic entity ID from the entity name.
// Hashing is case-sensitive over the whole surface form: "Go" and "go"
// are distinct entities.
func EntityID(name string) string {
	return "entity:" + ContentHash(name)
}

// ChunkKey builds the canonical key for a document chunk. The same key
// addresses the chunk in the vector store and names its graph node.
func ChunkKey(documentID string, index int) string {
	return fmt.Sprintf("%s:chunk:%d", documentID, index)
}
