// Package authz holds the capability checks for user operations as explicit
// (actor, target) predicates, composed per operation by the transport layer.
package authz

import "userhive/backend/internal/models"

// Capability decides whether an actor may perform an operation on a target.
type Capability func(actor, target *models.User) bool

// OwnerOnly allows only owner-role actors, regardless of target.
func OwnerOnly(actor, _ *models.User) bool {
	return actor != nil && actor.IsOwner()
}

// SelfOnly allows an actor to touch only their own record.
func SelfOnly(actor, target *models.User) bool {
	return actor != nil && target != nil && actor.ID == target.ID
}

// NotAcrossOwners blocks an owner from mutating another owner's record.
func NotAcrossOwners(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if target.IsOwner() {
		return actor.ID == target.ID
	}
	return true
}

// CanStartConversation mirrors the chat rule: a dialogue may only be started
// when at least one side is an owner.
func CanStartConversation(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.IsOwner() || target.IsOwner()
}

// EffectiveParentID resolves the ownership-condition anchor for owner-scoped
// writes. The rule is asymmetric on purpose: an owner editing themselves
// anchors on their own parent id, while an owner editing a subordinate
// anchors on their own id.
func EffectiveParentID(actor *models.User, targetID uint) uint {
	if targetID == actor.ID {
		return actor.ParentID()
	}
	return actor.ID
}
