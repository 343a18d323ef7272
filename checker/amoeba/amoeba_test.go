// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package amoeba_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/amoeba"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestCreationCheckerRequiresGenerationZero(t *testing.T) {
	zero, err := amoeba.NewOutput(0)
	require.NoError(t, err)
	_, err = amoeba.CreationChecker{}.Check(nil, nil, []payload.Payload{zero})
	require.NoError(t, err)

	one, err := amoeba.NewOutput(1)
	require.NoError(t, err)
	_, err = amoeba.CreationChecker{}.Check(nil, nil, []payload.Payload{one})
	require.ErrorIs(t, err, amoeba.ErrWrongGeneration)
}

func TestMitosisCheckerRequiresBothChildrenNextGeneration(t *testing.T) {
	parent, err := amoeba.NewOutput(5)
	require.NoError(t, err)
	child1, err := amoeba.NewOutput(6)
	require.NoError(t, err)
	child2, err := amoeba.NewOutput(6)
	require.NoError(t, err)

	_, err = amoeba.MitosisChecker{}.Check([]payload.Payload{parent}, nil, []payload.Payload{child1, child2})
	require.NoError(t, err)

	badChild, err := amoeba.NewOutput(7)
	require.NoError(t, err)
	_, err = amoeba.MitosisChecker{}.Check([]payload.Payload{parent}, nil, []payload.Payload{child1, badChild})
	require.ErrorIs(t, err, amoeba.ErrWrongGeneration)
}

func TestDeathCheckerRequiresOneInputNoOutputs(t *testing.T) {
	a, err := amoeba.NewOutput(2)
	require.NoError(t, err)

	_, err = amoeba.DeathChecker{}.Check([]payload.Payload{a}, nil, nil)
	require.NoError(t, err)

	_, err = amoeba.DeathChecker{}.Check([]payload.Payload{a}, nil, []payload.Payload{a})
	require.ErrorIs(t, err, amoeba.ErrWrongArity)
}
