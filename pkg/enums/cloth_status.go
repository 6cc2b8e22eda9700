package enums

import "fmt"

// ClothStatus tracks a garment item through the tailoring pipeline.
type ClothStatus string

const (
	ClothStatusAwaitingThreading           ClothStatus = "awaiting_threading"
	ClothStatusAwaitingCutting             ClothStatus = "awaiting_cutting"
	ClothStatusAwaitingStitchingAssignment ClothStatus = "awaiting_stitching_assignment"
	ClothStatusAwaitingStitching           ClothStatus = "awaiting_stitching"
	ClothStatusAwaitingButtoning           ClothStatus = "awaiting_buttoning"
	ClothStatusAwaitingIroning             ClothStatus = "awaiting_ironing"
	ClothStatusAwaitingPackaging           ClothStatus = "awaiting_packaging"
	ClothStatusReady                       ClothStatus = "ready"
)

// OrderedClothStatuses lists every status in pipeline order, terminal last.
var OrderedClothStatuses = []ClothStatus{
	ClothStatusAwaitingThreading,
	ClothStatusAwaitingCutting,
	ClothStatusAwaitingStitchingAssignment,
	ClothStatusAwaitingStitching,
	ClothStatusAwaitingButtoning,
	ClothStatusAwaitingIroning,
	ClothStatusAwaitingPackaging,
	ClothStatusReady,
}

// String implements fmt.Stringer.
func (c ClothStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClothStatus.
func (c ClothStatus) IsValid() bool {
	for _, candidate := range OrderedClothStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists from this status.
func (c ClothStatus) IsTerminal() bool {
	return c == ClothStatusReady
}

// ParseClothStatus converts raw input into a ClothStatus.
func ParseClothStatus(value string) (ClothStatus, error) {
	for _, candidate := range OrderedClothStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cloth status %q", value)
}
