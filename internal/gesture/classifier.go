// Package gesture turns per-frame hand observations into the control signal
// that drives the overlay object: the right index fingertip sets its
// position and the left thumb-to-pinky span sets its scale.
package gesture

import "github.com/ayusman/cosmozoom/internal/detector"

// Roles holds at most one hand per role for a single frame. A nil field
// means that role was not observed in the frame.
type Roles struct {
	Right *detector.HandLandmarks
	Left  *detector.HandLandmarks
}

// Empty reports whether neither role was observed.
func (r Roles) Empty() bool {
	return r.Right == nil && r.Left == nil
}

// Classify assigns hands to roles by their handedness tag. The first hand
// carrying a tag wins; later duplicates and unknown tags are ignored. No
// state is carried between calls.
func Classify(hands []detector.HandLandmarks) Roles {
	var roles Roles

	for i := range hands {
		h := hands[i]
		switch h.Handedness {
		case detector.Right:
			if roles.Right == nil {
				roles.Right = &h
			}
		case detector.Left:
			if roles.Left == nil {
				roles.Left = &h
			}
		}
	}

	return roles
}
