package badger

import (
	"encoding/binary"

	"github.com/poiesic/docchat/core"
)

// Key prefixes for different data types
const (
	chunkPrefix         = "chunk"
	chunkDocumentPrefix = "chunkdoc"
)

// namespaceSeparator terminates the namespace inside a key so that namespace
// "a" never prefix-matches keys of namespace "ab".
const namespaceSeparator = 0x00

// makeChunkNamespacePrefix generates the prefix shared by all chunks of a namespace.
// Format: prefix:namespace\x00
func makeChunkNamespacePrefix(namespace string) []byte {
	buf := make([]byte, 0, len(chunkPrefix)+len(namespace)+2)
	buf = append(buf, chunkPrefix...)
	buf = append(buf, ':')
	buf = append(buf, namespace...)
	return append(buf, namespaceSeparator)
}

// makeChunkKey generates a key for a chunk by namespace and ID.
// Format: prefix:namespace\x00<id>
func makeChunkKey(namespace string, id core.ID) []byte {
	prefix := makeChunkNamespacePrefix(namespace)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentPrefix generates the prefix of a document's chunk index entries.
// Format: prefix:namespace\x00<documentID>
func makeDocumentPrefix(namespace string, documentID core.ID) []byte {
	buf := make([]byte, 0, len(chunkDocumentPrefix)+len(namespace)+10)
	buf = append(buf, chunkDocumentPrefix...)
	buf = append(buf, ':')
	buf = append(buf, namespace...)
	buf = append(buf, namespaceSeparator)
	return binary.BigEndian.AppendUint64(buf, uint64(documentID))
}

// makeDocumentChunkKey generates a composite key for the document index.
// Format: prefix:namespace\x00<documentID><index>
// BigEndian keeps iteration in chunk order.
func makeDocumentChunkKey(namespace string, documentID core.ID, index int) []byte {
	prefix := makeDocumentPrefix(namespace, documentID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// decodeUint64 reads a BigEndian uint64 from the start of b.
func decodeUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
