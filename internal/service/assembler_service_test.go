package service

import (
	"testing"

	"github.com/google/uuid"
)

func TestSampleQuestionIDs(t *testing.T) {
	pool := make([]uuid.UUID, 20)
	for i := range pool {
		pool[i] = uuid.New()
	}
	inPool := make(map[uuid.UUID]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}

	t.Run("ExactCount", func(t *testing.T) {
		got := SampleQuestionIDs(pool, 10)
		if len(got) != 10 {
			t.Fatalf("len = %d, want 10", len(got))
		}
		seen := make(map[uuid.UUID]bool, len(got))
		for _, id := range got {
			if !inPool[id] {
				t.Errorf("sampled ID %s not in pool", id)
			}
			if seen[id] {
				t.Errorf("duplicate ID %s in sample", id)
			}
			seen[id] = true
		}
	})

	t.Run("CountLargerThanPool", func(t *testing.T) {
		got := SampleQuestionIDs(pool, 50)
		if len(got) != len(pool) {
			t.Fatalf("len = %d, want %d", len(got), len(pool))
		}
	})

	t.Run("PoolUntouched", func(t *testing.T) {
		before := make([]uuid.UUID, len(pool))
		copy(before, pool)
		_ = SampleQuestionIDs(pool, 5)
		for i := range pool {
			if pool[i] != before[i] {
				t.Fatal("sampling must not reorder the caller's slice")
			}
		}
	})

	t.Run("EmptyPool", func(t *testing.T) {
		if got := SampleQuestionIDs(nil, 5); len(got) != 0 {
			t.Fatalf("len = %d, want 0", len(got))
		}
	})
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
		seen[code] = true
	}
	// 200 draws from a million-code space colliding down to a handful
	// would mean a broken generator.
	if len(seen) < 190 {
		t.Errorf("only %d distinct codes in 200 draws", len(seen))
	}
}
