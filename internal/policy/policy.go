// Package policy decides who may modify whom in the family graph.
// It is pure decision logic over a narrow read-only view of the graph;
// callers own authentication, auditing, and the HTTP surface.
package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/observability"
)

// Actor identifies the authenticated user asking for a modification.
type Actor struct {
	UserID   uuid.UUID
	Role     models.Role
	PersonID *uuid.UUID // linked person, nil for users without a profile
}

// RelationSummary is the one-hop relationship set of a single person:
// parent links on the record itself, children collected via both the
// paternal and maternal inverse relations, and spouses from both
// marriage orderings.
type RelationSummary struct {
	FatherID         *uuid.UUID
	MotherID         *uuid.UUID
	AdoptiveParentID *uuid.UUID
	ChildIDs         []uuid.UUID
	SpouseIDs        []uuid.UUID
}

// ParentLinks are the parent foreign keys of a single person record.
type ParentLinks struct {
	FatherID         *uuid.UUID
	MotherID         *uuid.UUID
	AdoptiveParentID *uuid.UUID
}

// GraphReader is the read-only store access the policy needs. Both
// methods return (nil, nil) when the person does not exist.
type GraphReader interface {
	RelationSummary(ctx context.Context, personID uuid.UUID) (*RelationSummary, error)
	ParentLinks(ctx context.Context, personID uuid.UUID) (*ParentLinks, error)
}

type Policy struct {
	graph GraphReader
}

func New(graph GraphReader) *Policy {
	return &Policy{graph: graph}
}

// CanModify reports whether the actor may modify the target person.
// Evaluation order, first match wins:
//
//  1. ADMIN: always.
//  2. GUEST: never, self included.
//  3. Self-edit.
//  4. No linked person: never.
//  5. Direct relative one hop away: the actor is the target's parent,
//     child, or spouse, or the target is the actor's recorded parent.
//
// A missing target denies rather than erroring; callers that need a 404
// must check existence themselves. Store errors propagate unchanged.
func (p *Policy) CanModify(ctx context.Context, actor Actor, targetPersonID uuid.UUID) (bool, error) {
	allowed, err := p.canModify(ctx, actor, targetPersonID)
	if err == nil {
		outcome := "deny"
		if allowed {
			outcome = "permit"
		}
		observability.AuthzDecisions.WithLabelValues(string(actor.Role), outcome).Inc()
	}
	return allowed, err
}

func (p *Policy) canModify(ctx context.Context, actor Actor, targetPersonID uuid.UUID) (bool, error) {
	if actor.Role == models.RoleAdmin {
		return true, nil
	}
	if actor.Role != models.RoleMember {
		// GUEST, and any unknown or empty role, fail closed.
		return false, nil
	}

	if actor.PersonID != nil && *actor.PersonID == targetPersonID {
		return true, nil
	}
	if actor.PersonID == nil {
		return false, nil
	}

	target, err := p.graph.RelationSummary(ctx, targetPersonID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, nil
	}

	if actorIsParentOf(target, *actor.PersonID) {
		return true, nil
	}
	if containsID(target.ChildIDs, *actor.PersonID) {
		return true, nil
	}
	if containsID(target.SpouseIDs, *actor.PersonID) {
		return true, nil
	}

	// The reverse direction is a separate fetch against the actor's own
	// record, not an inversion of the summary above.
	return p.targetIsParentOfActor(ctx, *actor.PersonID, targetPersonID)
}

// actorIsParentOf checks the target's own parent links against the
// acting person, adoptive link included.
func actorIsParentOf(target *RelationSummary, actingPersonID uuid.UUID) bool {
	return idEquals(target.FatherID, actingPersonID) ||
		idEquals(target.MotherID, actingPersonID) ||
		idEquals(target.AdoptiveParentID, actingPersonID)
}

// targetIsParentOfActor checks whether the target appears among the
// acting person's parent links. A vanished acting person denies.
func (p *Policy) targetIsParentOfActor(ctx context.Context, actingPersonID, targetPersonID uuid.UUID) (bool, error) {
	links, err := p.graph.ParentLinks(ctx, actingPersonID)
	if err != nil {
		return false, err
	}
	if links == nil {
		return false, nil
	}
	return idEquals(links.FatherID, targetPersonID) ||
		idEquals(links.MotherID, targetPersonID) ||
		idEquals(links.AdoptiveParentID, targetPersonID), nil
}

func idEquals(id *uuid.UUID, other uuid.UUID) bool {
	return id != nil && *id == other
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
