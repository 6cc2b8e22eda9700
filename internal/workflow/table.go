package workflow

import (
	"fmt"

	"github.com/threadline/threadline-backend/pkg/enums"
)

// RosterView is the read-only roster surface the table resolves assignees
// against. Keeping it an interface keeps the table pure and testable.
type RosterView interface {
	DefaultWorker(role enums.WorkerRole) (string, bool)
}

// Transition is one computed move through the pipeline: the status the item
// lands in and who picks it up there. NextAssignee is nil when the target
// role has no workers or the stage requires an explicit admin choice.
type Transition struct {
	NextStatus   enums.ClothStatus
	NextAssignee *string
	Role         enums.WorkerRole
}

type row struct {
	next enums.ClothStatus
	role enums.WorkerRole
}

// The table is keyed purely by current status; every garment type shares one
// pipeline. An empty role means the stage gets no automatic assignee:
// awaiting_stitching waits for an admin to pick a tailor, ready is terminal
// work.
var transitions = map[enums.ClothStatus]row{
	enums.ClothStatusAwaitingThreading:           {next: enums.ClothStatusAwaitingCutting, role: enums.WorkerRoleCutting},
	enums.ClothStatusAwaitingCutting:             {next: enums.ClothStatusAwaitingStitchingAssignment, role: enums.WorkerRoleAdmin},
	enums.ClothStatusAwaitingStitchingAssignment: {next: enums.ClothStatusAwaitingStitching},
	enums.ClothStatusAwaitingStitching:           {next: enums.ClothStatusAwaitingButtoning, role: enums.WorkerRoleButtoning},
	enums.ClothStatusAwaitingButtoning:           {next: enums.ClothStatusAwaitingIroning, role: enums.WorkerRoleIroning},
	enums.ClothStatusAwaitingIroning:             {next: enums.ClothStatusAwaitingPackaging, role: enums.WorkerRolePackaging},
	enums.ClothStatusAwaitingPackaging:           {next: enums.ClothStatusReady},
}

// stageRoles maps a status to the role that works items sitting in it. Used
// to resolve the assignee for the configured first stage at item creation.
var stageRoles = map[enums.ClothStatus]enums.WorkerRole{
	enums.ClothStatusAwaitingThreading:           enums.WorkerRoleThreading,
	enums.ClothStatusAwaitingCutting:             enums.WorkerRoleCutting,
	enums.ClothStatusAwaitingStitchingAssignment: enums.WorkerRoleAdmin,
	enums.ClothStatusAwaitingButtoning:           enums.WorkerRoleButtoning,
	enums.ClothStatusAwaitingIroning:             enums.WorkerRoleIroning,
	enums.ClothStatusAwaitingPackaging:           enums.WorkerRolePackaging,
}

// Table computes pipeline transitions. The first stage varies between
// deployments and is injected from configuration.
type Table struct {
	firstStage enums.ClothStatus
}

// NewTable builds a transition table that starts new items at firstStage.
func NewTable(firstStage enums.ClothStatus) (*Table, error) {
	if !firstStage.IsValid() {
		return nil, fmt.Errorf("invalid first stage %q", firstStage)
	}
	if firstStage.IsTerminal() {
		return nil, fmt.Errorf("first stage cannot be terminal")
	}
	return &Table{firstStage: firstStage}, nil
}

// Next computes the transition out of current. The second return is false
// when current is terminal or unknown. Assignee resolution always reads the
// roster passed in, so roster edits affect in-flight items; an empty role
// yields a nil assignee but the transition still advances.
func (t *Table) Next(current enums.ClothStatus, roster RosterView) (*Transition, bool) {
	r, ok := transitions[current]
	if !ok {
		return nil, false
	}
	return &Transition{
		NextStatus:   r.next,
		NextAssignee: resolveAssignee(r.role, roster),
		Role:         r.role,
	}, true
}

// First resolves the initial status and assignee for a newly created item.
func (t *Table) First(roster RosterView) Transition {
	role := stageRoles[t.firstStage]
	return Transition{
		NextStatus:   t.firstStage,
		NextAssignee: resolveAssignee(role, roster),
		Role:         role,
	}
}

// FirstStage returns the configured initial status.
func (t *Table) FirstStage() enums.ClothStatus {
	return t.firstStage
}

func resolveAssignee(role enums.WorkerRole, roster RosterView) *string {
	if role == "" || roster == nil {
		return nil
	}
	name, ok := roster.DefaultWorker(role)
	if !ok {
		return nil
	}
	return &name
}
