package playlist

import "fmt"

// ShiftPlan describes a track-order mutation as one range shift plus one
// point placement. The authoritative side turns a plan into two SQL updates
// inside a transaction; the optimistic client applies the same plan to its
// cached track slice. Keeping a single plan builder per operation is what
// guarantees both sides converge on identical positions.
//
// The range [Lo, Hi] is inclusive and covers only rows that keep existing;
// the moved (or removed) track is never inside it. For a move, the vacated
// source slot is excluded and the destination slot included, so after the
// shift exactly one position value (Target) is free for the moved track.
type ShiftPlan struct {
	Lo     int // first shifted position; plan is empty when Lo > Hi
	Hi     int // last shifted position
	Delta  int // +1 or -1
	Target int // destination slot for the inserted/moved track, 0 for remove
	NoOp   bool
}

// Empty reports whether the plan shifts no rows.
func (p ShiftPlan) Empty() bool {
	return p.Lo > p.Hi
}

// Shift returns the post-plan position of a surviving row currently at pos.
func (p ShiftPlan) Shift(pos int) int {
	if pos >= p.Lo && pos <= p.Hi {
		return pos + p.Delta
	}
	return pos
}

// InsertPlan plans inserting a new track at position in a playlist of total
// tracks. Valid positions are 1..total+1; total+1 is a plain append with an
// empty shift range.
func InsertPlan(position, total int) (ShiftPlan, error) {
	if position < 1 || position > total+1 {
		return ShiftPlan{}, errInvalidArgument(fmt.Sprintf("position must be between 1 and %d", total+1))
	}
	return ShiftPlan{Lo: position, Hi: total, Delta: 1, Target: position}, nil
}

// MovePlan plans moving a track from oldPos to newPos in a playlist of total
// tracks. Moving a track onto its own position is a no-op plan.
func MovePlan(oldPos, newPos, total int) (ShiftPlan, error) {
	if newPos < 1 || newPos > total {
		return ShiftPlan{}, errInvalidArgument(fmt.Sprintf("newPosition must be between 1 and %d", total))
	}
	switch {
	case oldPos == newPos:
		return ShiftPlan{Lo: 1, Hi: 0, Target: newPos, NoOp: true}, nil
	case oldPos < newPos:
		// Rows strictly after the vacated slot, up to and including the
		// destination, step back one.
		return ShiftPlan{Lo: oldPos + 1, Hi: newPos, Delta: -1, Target: newPos}, nil
	default:
		// Rows from the destination up to but excluding the vacated slot
		// step forward one.
		return ShiftPlan{Lo: newPos, Hi: oldPos - 1, Delta: 1, Target: newPos}, nil
	}
}

// RemovePlan plans deleting the track at position in a playlist of total
// tracks: everything after it closes the gap.
func RemovePlan(position, total int) ShiftPlan {
	return ShiftPlan{Lo: position + 1, Hi: total, Delta: -1}
}

// ApplyPlan rewrites the positions of tracks in place according to plan and
// returns how many rows changed position. It is the client-projection twin
// of the server's range-shift UPDATE; movedID (optional) names the track the
// plan's Target slot belongs to.
func ApplyPlan(tracks []Track, plan ShiftPlan, movedID string) int {
	if plan.NoOp {
		return 0
	}
	affected := 0
	for i := range tracks {
		if movedID != "" && tracks[i].ID == movedID {
			if tracks[i].Position != plan.Target {
				tracks[i].Position = plan.Target
				affected++
			}
			continue
		}
		if next := plan.Shift(tracks[i].Position); next != tracks[i].Position {
			tracks[i].Position = next
			affected++
		}
	}
	return affected
}
