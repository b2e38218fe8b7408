package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAncestryCycle is returned when a parent chain loops back on itself.
// The graph is supposed to be a DAG but nothing at write time enforces
// that, so the walk carries a visited set instead of trusting the data.
var ErrAncestryCycle = errors.New("cycle detected in ancestry chain")

// Estimator computes suggested generation numbers by walking ancestor
// chains. Root ancestors (no recorded parents) are generation 1.
type Estimator struct {
	graph GraphReader
}

func NewEstimator(graph GraphReader) *Estimator {
	return &Estimator{graph: graph}
}

// EstimateGeneration resolves the generation a child of the given
// parents would belong to. Both ids absent means a root person
// (generation 1). A parent id that does not resolve contributes 0, so a
// child with only unresolvable parents still lands at generation 1.
func (e *Estimator) EstimateGeneration(ctx context.Context, fatherID, motherID *uuid.UUID) (int, error) {
	visited := make(map[uuid.UUID]bool)
	return e.estimate(ctx, fatherID, motherID, visited)
}

func (e *Estimator) estimate(ctx context.Context, fatherID, motherID *uuid.UUID, visited map[uuid.UUID]bool) (int, error) {
	if fatherID == nil && motherID == nil {
		return 1, nil
	}

	highest := 0
	for _, parentID := range []*uuid.UUID{fatherID, motherID} {
		if parentID == nil {
			continue
		}
		gen, err := e.personGeneration(ctx, *parentID, visited)
		if err != nil {
			return 0, err
		}
		if gen > highest {
			highest = gen
		}
	}
	return highest + 1, nil
}

// personGeneration resolves the generation of an existing person by
// recursing over their own parent links. Missing persons are generation
// 0 so they contribute nothing to the max above. The visited set tracks
// the current descent path only; an ancestor reachable through both
// parents (a diamond) is legal and must not trip the cycle guard.
func (e *Estimator) personGeneration(ctx context.Context, personID uuid.UUID, visited map[uuid.UUID]bool) (int, error) {
	if visited[personID] {
		return 0, ErrAncestryCycle
	}
	visited[personID] = true
	defer delete(visited, personID)

	links, err := e.graph.ParentLinks(ctx, personID)
	if err != nil {
		return 0, err
	}
	if links == nil {
		return 0, nil
	}
	return e.estimate(ctx, links.FatherID, links.MotherID, visited)
}
