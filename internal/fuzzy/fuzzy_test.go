package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Score("getUser", "getUser"))
}

func TestScore_EmptyInputsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "getUser"))
	assert.Equal(t, 0.0, Score("getUser", ""))
}

func TestScore_CloseNamesScoreHigherThanUnrelated(t *testing.T) {
	close := Score("getUser", "getUsers")
	unrelated := Score("getUser", "xyzzy")
	assert.Greater(t, close, unrelated)
}

func TestRank_FiltersZeroAndSortsDescending(t *testing.T) {
	matches := Rank("getUser", []string{"getUsers", "xyzzy", "getUser"})
	require := assert.New(t)
	require.NotEmpty(matches)
	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(matches[i-1].Score, matches[i].Score)
	}
	for _, m := range matches {
		require.Greater(m.Score, 0.0)
	}
}
