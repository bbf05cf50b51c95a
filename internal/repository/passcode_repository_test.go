package repository

import "testing"

func TestFirstFreeSeat(t *testing.T) {
	t.Run("EmptyHall", func(t *testing.T) {
		seat, ok := FirstFreeSeat(10, map[int]bool{})
		if !ok || seat != 1 {
			t.Errorf("got (%d, %v), want (1, true)", seat, ok)
		}
	})

	t.Run("FillsGapsFirst", func(t *testing.T) {
		taken := map[int]bool{1: true, 2: true, 4: true}
		seat, ok := FirstFreeSeat(10, taken)
		if !ok || seat != 3 {
			t.Errorf("got (%d, %v), want (3, true)", seat, ok)
		}
	})

	t.Run("LastSeat", func(t *testing.T) {
		taken := map[int]bool{1: true, 2: true}
		seat, ok := FirstFreeSeat(3, taken)
		if !ok || seat != 3 {
			t.Errorf("got (%d, %v), want (3, true)", seat, ok)
		}
	})

	t.Run("FullHall", func(t *testing.T) {
		taken := map[int]bool{1: true, 2: true, 3: true}
		if _, ok := FirstFreeSeat(3, taken); ok {
			t.Error("full hall must report no free seat")
		}
	})

	t.Run("ZeroCapacity", func(t *testing.T) {
		if _, ok := FirstFreeSeat(0, map[int]bool{}); ok {
			t.Error("zero-capacity hall must report no free seat")
		}
	})
}
