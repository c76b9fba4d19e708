package timeline

import "sort"

// AssignLanes packs overlapping text elements into display lanes. Elements
// are visited in (zIndex ascending, positionStart ascending) order and each
// is placed greedily in the first lane none of whose members overlap it in
// time; a new lane opens when none qualifies.
//
// Greedy first-fit is not guaranteed lane-count-optimal, and deliberately so:
// it is deterministic and stable under insertion order, which the editor and
// the text-rendering stage both depend on for stable lane indices. Do not
// replace it with an optimal interval coloring.
//
// The result is a pure function of the current element set and is recomputed
// on demand; lane assignments are never persisted.
func (tl *Timeline) AssignLanes() map[string]int {
	ordered := make([]*TextElement, len(tl.texts))
	copy(ordered, tl.texts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ZIndex != ordered[j].ZIndex {
			return ordered[i].ZIndex < ordered[j].ZIndex
		}
		if ordered[i].PositionStart != ordered[j].PositionStart {
			return ordered[i].PositionStart < ordered[j].PositionStart
		}
		return ordered[i].seq < ordered[j].seq
	})

	lanes := make(map[string]int, len(ordered))
	var laneMembers [][]*TextElement
	for _, elem := range ordered {
		placed := false
		for lane, members := range laneMembers {
			if !overlapsAny(elem, members) {
				laneMembers[lane] = append(members, elem)
				lanes[elem.ID] = lane
				placed = true
				break
			}
		}
		if !placed {
			laneMembers = append(laneMembers, []*TextElement{elem})
			lanes[elem.ID] = len(laneMembers) - 1
		}
	}
	return lanes
}

func overlapsAny(elem *TextElement, members []*TextElement) bool {
	for _, member := range members {
		if elem.Overlaps(member.ElementBase) {
			return true
		}
	}
	return false
}
