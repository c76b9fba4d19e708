package timeline_test

import "testing"

func TestAssignLanesGreedyFirstFit(t *testing.T) {
	tl := newTimeline(t)
	a := addText(t, tl, "a", 0, 2)
	b := addText(t, tl, "b", 1, 3)
	c := addText(t, tl, "c", 5, 6)

	lanes := tl.AssignLanes()
	if lanes[a.ID] != 0 {
		t.Fatalf("lane(a) = %d, want 0", lanes[a.ID])
	}
	if lanes[b.ID] != 1 {
		t.Fatalf("lane(b) = %d, want 1", lanes[b.ID])
	}
	if lanes[c.ID] != 0 {
		t.Fatalf("lane(c) = %d, want 0", lanes[c.ID])
	}
}

func TestAssignLanesTouchingElementsShareLane(t *testing.T) {
	tl := newTimeline(t)
	a := addText(t, tl, "a", 0, 2)
	b := addText(t, tl, "b", 2, 4)

	lanes := tl.AssignLanes()
	if lanes[a.ID] != 0 || lanes[b.ID] != 0 {
		t.Fatalf("touching windows should share lane 0, got %d and %d", lanes[a.ID], lanes[b.ID])
	}
}

func TestAssignLanesOrdersByZIndexFirst(t *testing.T) {
	tl := newTimeline(t)
	a := addText(t, tl, "a", 0, 2)
	b := addText(t, tl, "b", 0, 2)
	a.ZIndex = 5

	lanes := tl.AssignLanes()
	// b has the lower z-index, so it is packed first and takes lane 0.
	if lanes[b.ID] != 0 || lanes[a.ID] != 1 {
		t.Fatalf("lanes = a:%d b:%d, want a:1 b:0", lanes[a.ID], lanes[b.ID])
	}
}

func TestAssignLanesStableAcrossRecomputes(t *testing.T) {
	tl := newTimeline(t)
	for i := 0; i < 6; i++ {
		addText(t, tl, "t", float64(i%3), float64(i%3)+2)
	}
	first := tl.AssignLanes()
	second := tl.AssignLanes()
	for id, lane := range first {
		if second[id] != lane {
			t.Fatalf("lane for %s changed between recomputes: %d -> %d", id, lane, second[id])
		}
	}
}
