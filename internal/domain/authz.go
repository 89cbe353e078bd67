package domain

// CanRequestTransition reports whether the role may target the given
// reservation status at all, independent of which reservation.
// Participants may only cancel; organizers may confirm, refuse, or
// cancel.
func CanRequestTransition(role Role, target ReservationStatus) bool {
	if role == RoleAdminOrg {
		return true
	}
	return target == ReservationCanceled
}

// CanAccessReservation reports whether the actor may read or act on a
// reservation owned by ownerID. Organizers see everything; participants
// only their own.
func CanAccessReservation(role Role, ownerID, actorID string) bool {
	if role == RoleAdminOrg {
		return true
	}
	return ownerID == actorID
}
