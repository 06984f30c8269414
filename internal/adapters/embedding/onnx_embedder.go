package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

const defaultCacheSize = 4096

// Config locates the ONNX model, its tokenizer and the runtime library.
type Config struct {
	SharedLibraryPath string
	ModelPath         string
	TokenizerPath     string
	ModelID           string
	MaxSeqLen         int
	Dimension         int
	CacheSize         int
}

// OrtEmbedder embeds texts with an ONNX sentence-embedding model. Vectors are
// memoized per (model, text).
type OrtEmbedder struct {
	enc     encoder
	modelID string
	cache   *lru.Cache[string, []float32]

	mu     sync.RWMutex
	closed bool
}

// NewOrtEmbedder loads the model and tokenizer.
func NewOrtEmbedder(cfg Config) (*OrtEmbedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("embedding model and tokenizer paths are required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	enc, err := newOrtEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return newEmbedder(enc, cfg)
}

func newEmbedder(enc encoder, cfg Config) (*OrtEmbedder, error) {
	if cfg.ModelID == "" && cfg.ModelPath != "" {
		cfg.ModelID = filepath.Base(cfg.ModelPath)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &OrtEmbedder{enc: enc, modelID: cfg.ModelID, cache: cache}, nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtEmbedder) ModelID() string {
	return o.modelID
}

// EmbedText embeds a single string with caching.
func (o *OrtEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return nil, errors.New("embedder is closed")
	}

	normalized := utils.EmbeddingText(text)
	key := o.cacheKey(normalized)
	if vec, ok := o.cache.Get(key); ok {
		return cloneVector(vec), nil
	}

	vec, err := o.enc.Encode(normalized)
	if err != nil {
		return nil, err
	}
	o.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// EmbedTexts embeds a slice of strings sequentially.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := o.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Close releases ORT resources.
func (o *OrtEmbedder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.cache.Purge()
	return o.enc.Close()
}

func (o *OrtEmbedder) cacheKey(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, o.modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

// Loader returns a function loading the embedder at most once per process.
// A failed load is remembered and returned to every later caller.
func Loader(cfg Config) func(context.Context) (providers.Embedder, error) {
	var (
		once     sync.Once
		embedder providers.Embedder
		loadErr  error
	)
	return func(ctx context.Context) (providers.Embedder, error) {
		once.Do(func() {
			e, err := NewOrtEmbedder(cfg)
			if err != nil {
				loadErr = err
				observability.LoggerFromContext(ctx).Error().Err(err).Str("model", cfg.ModelPath).Msg("Failed to load embedding model")
				return
			}
			embedder = e
			observability.LoggerFromContext(ctx).Info().Str("model", e.ModelID()).Msg("Embedding model loaded")
		})
		return embedder, loadErr
	}
}
