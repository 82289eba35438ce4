// Package embedding maps text to fixed-dimension vectors.
//
// Roles and resumes must be encoded by the same encoder for their scores to be
// meaningful, so a process builds one Handle and hands it to every consumer.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// Encoder turns text into a vector of Dimension() floats.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
	Dimension() int
	Name() string
}

// Closer is implemented by encoders holding resources.
type Closer interface {
	Close() error
}

const (
	// DefaultDimension matches the common sentence-transformer output size.
	DefaultDimension = 384
	hashingName      = "feature-hashing"
	charGramSize     = 3
	charGramWeight   = 0.5
)

// HashingEncoder is a local encoder using signed feature hashing over word
// unigrams and character trigrams. Output is L2-normalized; empty text yields
// the zero vector. It is deterministic and safe for concurrent use.
type HashingEncoder struct {
	dim int
}

// NewHashingEncoder returns a HashingEncoder with dim dimensions (DefaultDimension if dim <= 0).
func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashingEncoder{dim: dim}
}

func (h *HashingEncoder) Dimension() int { return h.dim }

func (h *HashingEncoder) Name() string { return hashingName }

func (h *HashingEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dim)
	for _, tok := range Tokenize(text) {
		h.add(vec, "w:"+tok, 1)
		runes := []rune(tok)
		if len(runes) < charGramSize {
			continue
		}
		for i := 0; i+charGramSize <= len(runes); i++ {
			h.add(vec, "c:"+string(runes[i:i+charGramSize]), charGramWeight)
		}
	}
	normalize(vec)
	return vec, nil
}

func (h *HashingEncoder) add(vec []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= n
	}
}

// Serialize wraps enc so that only one Encode call runs at a time.
func Serialize(enc Encoder) Encoder {
	return &serialized{Encoder: enc}
}

type serialized struct {
	mu sync.Mutex
	Encoder
}

func (s *serialized) Encode(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Encoder.Encode(ctx, text)
}

func (s *serialized) Close() error {
	if c, ok := s.Encoder.(Closer); ok {
		return c.Close()
	}
	return nil
}
