package chunk

import (
	"errors"
	"strings"
	"testing"

	"github.com/silodex/silodex/internal/domain"
)

func mustChunk(t *testing.T, index int, start float64) Chunk {
	t.Helper()
	c, err := New("m1", index, "text", start, start+10, nil, nil, 1700000000000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, err := New("m1", 0, "hello", 0, 10,
			map[string]string{"lang": "en"}, map[string]float64{"year": 2024}, 1)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if c.MediaID() != "m1" || c.Index() != 0 || c.Text() != "hello" {
			t.Error("getters do not round-trip constructor values")
		}
		if c.Tags()["lang"] != "en" || c.Numerics()["year"] != 2024 {
			t.Error("metadata not preserved")
		}
	})

	t.Run("maps are copied", func(t *testing.T) {
		tags := map[string]string{"lang": "en"}
		c, _ := New("m1", 0, "t", 0, 1, tags, nil, 1)
		tags["lang"] = "de"
		if c.Tags()["lang"] != "en" {
			t.Error("tags must be copied on construction")
		}
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := New("m1", 0, "", 0, 1, nil, nil, 1)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("text too large", func(t *testing.T) {
		_, err := New("m1", 0, strings.Repeat("a", MaxTextSize+1), 0, 1, nil, nil, 1)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := New("m1", -1, "t", 0, 1, nil, nil, 1)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := New("m1", 0, "t", 10, 5, nil, nil, 1)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative start", func(t *testing.T) {
		_, err := New("m1", 0, "t", -1, 5, nil, nil, 1)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSetVector(t *testing.T) {
	c := mustChunk(t, 0, 0)
	c.SetVector([]float32{0.1, 0.2})
	if len(c.Vector()) != 2 {
		t.Errorf("Vector() len = %d, want 2", len(c.Vector()))
	}
}

func TestValidateSet(t *testing.T) {
	t.Run("valid contiguous set", func(t *testing.T) {
		chunks := []Chunk{mustChunk(t, 0, 0), mustChunk(t, 1, 10), mustChunk(t, 2, 20)}
		if err := ValidateSet(chunks); err != nil {
			t.Errorf("ValidateSet() error = %v", err)
		}
	})

	t.Run("empty set", func(t *testing.T) {
		if err := ValidateSet(nil); err != nil {
			t.Errorf("ValidateSet(nil) error = %v", err)
		}
	})

	t.Run("gap in indices", func(t *testing.T) {
		chunks := []Chunk{mustChunk(t, 0, 0), mustChunk(t, 2, 10)}
		err := ValidateSet(chunks)
		if !errors.Is(err, domain.ErrChunkSetInvalid) {
			t.Errorf("expected ErrChunkSetInvalid, got %v", err)
		}
	})

	t.Run("duplicate index", func(t *testing.T) {
		chunks := []Chunk{mustChunk(t, 0, 0), mustChunk(t, 0, 10)}
		err := ValidateSet(chunks)
		if !errors.Is(err, domain.ErrChunkSetInvalid) {
			t.Errorf("expected ErrChunkSetInvalid, got %v", err)
		}
	})

	t.Run("decreasing start times", func(t *testing.T) {
		chunks := []Chunk{mustChunk(t, 0, 20), mustChunk(t, 1, 10)}
		err := ValidateSet(chunks)
		if !errors.Is(err, domain.ErrChunkSetInvalid) {
			t.Errorf("expected ErrChunkSetInvalid, got %v", err)
		}
	})

	t.Run("equal start times allowed", func(t *testing.T) {
		chunks := []Chunk{mustChunk(t, 0, 10), mustChunk(t, 1, 10)}
		if err := ValidateSet(chunks); err != nil {
			t.Errorf("ValidateSet() error = %v", err)
		}
	})
}
