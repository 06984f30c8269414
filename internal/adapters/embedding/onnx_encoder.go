package embedding

import (
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime loads the ONNX Runtime shared library once per process.
func initRuntime(sharedLibraryPath string) error {
	ortInitOnce.Do(func() {
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// encoder turns one text into a sentence vector.
type encoder interface {
	Encode(text string) ([]float32, error)
	Close() error
}

// ortEncoder runs a BERT-style sentence-embedding model exported to ONNX and
// mean-pools its last hidden state over the attention mask.
type ortEncoder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizer.Tokenizer
	maxSeqLen int
	dimension int
}

func newOrtEncoder(cfg Config) (*ortEncoder, error) {
	if err := initRuntime(cfg.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}

	return &ortEncoder{
		session:   session,
		tokenizer: tk,
		maxSeqLen: cfg.MaxSeqLen,
		dimension: cfg.Dimension,
	}, nil
}

func (e *ortEncoder) Encode(text string) ([]float32, error) {
	enc, err := e.tokenizer.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	n := len(enc.Ids)
	if e.maxSeqLen > 0 && n > e.maxSeqLen {
		n = e.maxSeqLen
	}
	if n == 0 {
		return nil, fmt.Errorf("tokenizer produced no tokens")
	}

	ids := toInt64(enc.Ids[:n])
	mask := toInt64(enc.AttentionMask[:n])
	typeIDs := make([]int64, n)
	if len(enc.TypeIds) >= n {
		typeIDs = toInt64(enc.TypeIds[:n])
	}

	shape := ort.NewShape(1, int64(n))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, err
	}
	defer typeTensor.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(e.dimension)))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, []ort.Value{output})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}

	return meanPool(output.GetData(), mask, e.dimension), nil
}

func (e *ortEncoder) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

// meanPool averages the token vectors selected by mask and L2-normalizes the
// result.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count == 0 {
		return out
	}

	var norm float64
	for i := range out {
		out[i] /= count
		norm += float64(out[i]) * float64(out[i])
	}
	if norm == 0 {
		return out
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range out {
		out[i] *= scale
	}
	return out
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
