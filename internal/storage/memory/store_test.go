package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/storage/memory"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestGetAbsent(t *testing.T) {
	s := memory.New()
	var p payload
	found, err := s.Get(context.Background(), "missing", &p)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSetGetCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	in := payload{Name: "a", Items: []string{"x"}}
	require.NoError(t, s.Set(ctx, "k", in))
	in.Items[0] = "mutated"

	var out payload
	found, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload{Name: "a", Items: []string{"x"}}, out)
}

func TestSetUnencodable(t *testing.T) {
	s := memory.New()
	err := s.Set(context.Background(), "k", make(chan int))
	require.Error(t, err)
}
