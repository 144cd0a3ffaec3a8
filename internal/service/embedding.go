package service

import (
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingServiceInterface produces vectors for meal similarity search.
type EmbeddingServiceInterface interface {
	GenerateEmbedding(text string) (pgvector.Vector, error)
}

// EmbeddingService is a deterministic local embedder. It counts length,
// vowels and consonants, which is enough for coarse nearest-neighbor
// lookups over stored meals without an external embedding API.
type EmbeddingService struct{}

func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

func (s *EmbeddingService) GenerateEmbedding(text string) (pgvector.Vector, error) {
	text = strings.ToLower(text)
	var vowels, consonants float32
	for _, r := range text {
		if strings.ContainsRune("aeiou", r) {
			vowels++
		} else if r >= 'a' && r <= 'z' {
			consonants++
		}
	}
	length := float32(len(text))
	return pgvector.NewVector([]float32{length, vowels, consonants}), nil
}
