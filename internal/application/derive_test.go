package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveNames(t *testing.T) {
	cases := []struct {
		email, first, last string
	}{
		{"jane.doe@x.com", "Jane", "Doe"},
		{"bob@x.com", "Bob", "Account"},
		{"JANE.DOE@x.com", "Jane", "Doe"},
		{"mary.ann.smith@x.com", "Mary", "Ann"},
		{".doe@x.com", "User", "Doe"},
		{"jane.@x.com", "Jane", "Account"},
		{"émile.zola@x.com", "Émile", "Zola"},
	}
	for _, tc := range cases {
		first, last := deriveNames(tc.email)
		assert.Equal(t, tc.first, first, tc.email)
		assert.Equal(t, tc.last, last, tc.email)
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "A", capitalize("a"))
	assert.Equal(t, "Mcdonald", capitalize("mcDONALD"))
}

func takenSet(names ...string) usernameExistsFunc {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(_ context.Context, u string) (bool, error) { return set[u], nil }
}

func TestUniqueUsername(t *testing.T) {
	ctx := context.Background()

	got, err := uniqueUsername(ctx, "jane", takenSet())
	require.NoError(t, err)
	assert.Equal(t, "jane", got)

	got, err = uniqueUsername(ctx, "jane", takenSet("jane"))
	require.NoError(t, err)
	assert.Equal(t, "jane1", got)

	got, err = uniqueUsername(ctx, "jane", takenSet("jane", "jane1"))
	require.NoError(t, err)
	assert.Equal(t, "jane2", got)
}

func TestUniqueUsername_LongChains(t *testing.T) {
	for _, n := range []int{0, 1, 5, 12, 40} {
		taken := []string{}
		if n > 0 {
			taken = append(taken, "sam")
			for i := 1; i < n; i++ {
				taken = append(taken, fmt.Sprintf("sam%d", i))
			}
		}
		got, err := uniqueUsername(context.Background(), "sam", takenSet(taken...))
		require.NoError(t, err)
		want := "sam"
		if n > 0 {
			want = fmt.Sprintf("sam%d", n)
		}
		assert.Equal(t, want, got, "chain of %d", n)
	}
}

func TestUniqueUsername_RechecksEveryCandidate(t *testing.T) {
	var checked []string
	exists := func(_ context.Context, u string) (bool, error) {
		checked = append(checked, u)
		return u != "kim3", nil
	}
	got, err := uniqueUsername(context.Background(), "kim", exists)
	require.NoError(t, err)
	assert.Equal(t, "kim3", got)
	assert.Equal(t, []string{"kim", "kim1", "kim2", "kim3"}, checked)
}

func TestUniqueUsername_Errors(t *testing.T) {
	boom := errors.New("db down")
	_, err := uniqueUsername(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = uniqueUsername(ctx, "x", func(context.Context, string) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
