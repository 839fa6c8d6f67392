package service

import (
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// Action is one of the operations the dispatch module's capability table
// gates. The narrative authorization rule in the source ("buyer owns the
// stop, or a supervisor/admin") is made explicit here as a (role, action)
// table rather than scattered role == "x" checks.
type Action string

const (
	ActionCompleteOwnStop    Action = "complete_own_stop"
	ActionCompleteAnyStop    Action = "complete_any_stop"
	ActionRecordFailure      Action = "record_failure"
	ActionRecomputeMatrix    Action = "recompute_matrix"
	ActionDispatchPlan       Action = "dispatch_plan"
)

var capabilityTable = map[types.StaffRole]map[Action]bool{
	types.StaffRoleBuyer: {
		ActionCompleteOwnStop: true,
		ActionRecordFailure:   true,
	},
	types.StaffRoleSupervisor: {
		ActionCompleteOwnStop: true,
		ActionCompleteAnyStop: true,
		ActionRecordFailure:   true,
		ActionRecomputeMatrix: true,
		ActionDispatchPlan:    true,
	},
	types.StaffRoleAdmin: {
		ActionCompleteOwnStop: true,
		ActionCompleteAnyStop: true,
		ActionRecordFailure:   true,
		ActionRecomputeMatrix: true,
		ActionDispatchPlan:    true,
	},
}

// Can reports whether the given role is permitted to perform action.
func Can(role types.StaffRole, action Action) bool {
	return capabilityTable[role][action]
}

// AuthorizeStopCompletion checks the narrative rule from the source: a
// buyer may complete a stop on their own route; a supervisor or admin may
// complete any stop.
func AuthorizeStopCompletion(actor types.Staff, routeStaffID int64) error {
	if actor.ID == routeStaffID && Can(actor.Role, ActionCompleteOwnStop) {
		return nil
	}
	if Can(actor.Role, ActionCompleteAnyStop) {
		return nil
	}
	return apperrors.New(apperrors.CodeForbidden, "staff is not authorized to complete this stop")
}
