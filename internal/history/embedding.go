package history

import (
	"hash/fnv"
	"math"

	"github.com/osmquery/overpass-gen/internal/dictionary"
)

// EmbeddingDim is the dimensionality of prompt embeddings stored alongside
// history entries.
const EmbeddingDim = 256

// Embed maps a prompt onto a fixed-size vector by hashing its character
// trigrams into buckets. The vector is L2-normalized so the pgvector cosine
// operator ranks prompts sharing more trigrams higher. Not a semantic
// embedding, but cheap, deterministic, and needs no model behind it.
func Embed(prompt string) []float32 {
	vec := make([]float32, EmbeddingDim)
	normalized := dictionary.Normalize(prompt)
	runes := []rune(" " + normalized + " ")

	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%EmbeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
