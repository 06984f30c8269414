package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all relevant retrieved", []string{"a", "b"}, []string{"b", "a", "c"}, 3, 1},
		{"half retrieved", []string{"a", "b", "c", "d"}, []string{"a", "x", "b"}, 3, 0.5},
		{"relevant beyond k", []string{"a", "b"}, []string{"x", "y", "a"}, 2, 0},
		{"empty retrieved", []string{"a"}, nil, 3, 0},
		{"empty relevant", nil, []string{"a"}, 3, 0},
		{"duplicate relevant counted once", []string{"a", "a", "b"}, []string{"a"}, 3, 0.5},
		{"duplicate retrieved counted once", []string{"a", "b"}, []string{"a", "a"}, 3, 0.5},
		{"k larger than retrieved", []string{"a"}, []string{"a"}, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first position", []string{"a"}, []string{"a", "b"}, 3, 1},
		{"second position", []string{"b"}, []string{"a", "b"}, 3, 0.5},
		{"third position", []string{"c", "z"}, []string{"a", "b", "c"}, 3, 1.0 / 3},
		{"outside k", []string{"c"}, []string{"a", "b", "c"}, 2, 0},
		{"no match", []string{"z"}, []string{"a"}, 3, 0},
		{"empty inputs", nil, nil, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}
