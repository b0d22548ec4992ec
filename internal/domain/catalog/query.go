package catalog

import (
	"strconv"
	"strings"
)

// DefaultChunkSize bounds how many ids go into one catalog query; the
// catalog rejects longer query expressions.
const DefaultChunkSize = 250

// ChunkIDs splits ids into consecutive slices of at most size ids.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// IDQuery matches any of the given card ids: (id:a OR id:b).
func IDQuery(ids []string) string {
	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = "id:" + id
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// SetQuery matches every card of a set.
func SetQuery(setID string) string {
	return "set.id:" + setID
}

// NameQuery matches cards or sets by name.
func NameQuery(name string) string {
	return "name:" + strconv.Quote(strings.TrimSpace(name))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
