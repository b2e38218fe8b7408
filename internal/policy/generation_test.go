package policy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateGenerationNoParents(t *testing.T) {
	est := NewEstimator(newFakeGraph())

	gen, err := est.EstimateGeneration(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gen)
}

func TestEstimateGenerationRootParent(t *testing.T) {
	graph := newFakeGraph()
	father := uuid.New()
	graph.addPerson(father)
	est := NewEstimator(graph)

	// Father exists with no parents of his own: generation 1, child 2.
	gen, err := est.EstimateGeneration(context.Background(), &father, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, gen)
}

func TestEstimateGenerationDeepChain(t *testing.T) {
	graph := newFakeGraph()
	greatGrandfather := uuid.New()
	grandfather := uuid.New()
	father := uuid.New()
	graph.setFather(grandfather, greatGrandfather)
	graph.setFather(father, grandfather)
	est := NewEstimator(graph)

	gen, err := est.EstimateGeneration(context.Background(), &father, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, gen)
}

func TestEstimateGenerationTakesDeeperParent(t *testing.T) {
	graph := newFakeGraph()
	grandfather := uuid.New()
	father := uuid.New()
	mother := uuid.New()
	graph.setFather(father, grandfather)
	graph.addPerson(mother)
	est := NewEstimator(graph)

	// Father sits at generation 2, mother at 1: the child follows the
	// deeper line.
	gen, err := est.EstimateGeneration(context.Background(), &father, &mother)
	require.NoError(t, err)
	assert.Equal(t, 3, gen)
}

func TestEstimateGenerationMissingParent(t *testing.T) {
	est := NewEstimator(newFakeGraph())
	ghost := uuid.New()

	// An unresolvable parent id contributes nothing, leaving the child
	// at generation 1.
	gen, err := est.EstimateGeneration(context.Background(), &ghost, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gen)
}

func TestEstimateGenerationCycle(t *testing.T) {
	graph := newFakeGraph()
	a := uuid.New()
	b := uuid.New()
	graph.setFather(a, b)
	graph.setFather(b, a)
	est := NewEstimator(graph)

	_, err := est.EstimateGeneration(context.Background(), &a, nil)
	assert.ErrorIs(t, err, ErrAncestryCycle)
}

func TestEstimateGenerationSelfParentCycle(t *testing.T) {
	graph := newFakeGraph()
	a := uuid.New()
	graph.setFather(a, a)
	est := NewEstimator(graph)

	_, err := est.EstimateGeneration(context.Background(), &a, nil)
	assert.ErrorIs(t, err, ErrAncestryCycle)
}

func TestEstimateGenerationDiamondAncestryIsNotACycle(t *testing.T) {
	graph := newFakeGraph()
	ancestor := uuid.New()
	father := uuid.New()
	mother := uuid.New()
	// Both parents descend from the same person. The shared ancestor is
	// visited once per branch, which is legal.
	graph.setFather(father, ancestor)
	graph.setFather(mother, ancestor)
	est := NewEstimator(graph)

	gen, err := est.EstimateGeneration(context.Background(), &father, &mother)
	require.NoError(t, err)
	assert.Equal(t, 3, gen)
}
