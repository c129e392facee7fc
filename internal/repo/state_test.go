package repo

import (
	"encoding/json"
	"testing"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportIsIndependent(t *testing.T) {
	r := newRepo(t, RejectEmpty)
	commitText(t, r, "a", "b", "first")

	state := r.Export()
	require.NotNil(t, state.Head)
	assert.Equal(t, graph.Hash("_1"), *state.Head)
	assert.Equal(t, uint64(1), state.Counter)

	_, err := state.Working.Save("a", content.Record{"content": "changed"})
	require.NoError(t, err)
	c := state.Commits["_1"]
	c.Message = "changed"
	state.Commits["_1"] = c

	record, err := r.Working().Get("a")
	require.NoError(t, err)
	assert.Equal(t, "b", record["content"])
	assert.Equal(t, "first", r.Log()["_1"].Message)
}

func TestExportImportJSON(t *testing.T) {
	src := newRepo(t, RejectEmpty)
	commitText(t, src, "a", "b", "first")
	commitText(t, src, "a", "c", "second")
	require.NoError(t, src.Checkout("_1", false))
	commitText(t, src, "b", "d", "third")
	_, err := src.Save("c", content.Record{"content": "wip"})
	require.NoError(t, err)
	require.NoError(t, src.Add("c"))

	data, err := json.Marshal(src.Export())
	require.NoError(t, err)

	var state State
	require.NoError(t, json.Unmarshal(data, &state))

	dst := newRepo(t, RejectEmpty)
	var events []EventType
	dst.Listen(func(e Event) { events = append(events, e.Type) })
	require.NoError(t, dst.Import(state))

	assert.Equal(t, []EventType{CheckedOut}, events)
	assert.Equal(t, src.Log(), dst.Log())
	assert.Equal(t, encoded(t, src.Working()), encoded(t, dst.Working()))
	assert.Equal(t, encoded(t, src.Staged()), encoded(t, dst.Staged()))

	srcLog, err := src.LogAccumulated()
	require.NoError(t, err)
	dstLog, err := dst.LogAccumulated()
	require.NoError(t, err)
	assert.Equal(t, srcLog, dstLog)

	h, err := dst.Commit("fourth", nil)
	require.NoError(t, err)
	assert.Equal(t, graph.Hash("_4"), h)
}

func TestImportPartial(t *testing.T) {
	src := newRepo(t, RejectEmpty)
	commitText(t, src, "a", "b", "first")
	commitText(t, src, "a", "c", "second")
	commits := src.Export().Commits

	t.Run("commits and head", func(t *testing.T) {
		head := graph.Hash("_1")
		r := newRepo(t, RejectEmpty)
		require.NoError(t, r.Import(State{Commits: commits, Head: &head}))

		got, ok := r.Head()
		assert.True(t, ok)
		assert.Equal(t, head, got)
		record, err := r.Working().Get("a")
		require.NoError(t, err)
		assert.Equal(t, "b", record["content"])
		assert.Equal(t, 0, r.Staged().Len())

		// counter covers _2 even though head is _1
		assert.Equal(t, uint64(2), r.Export().Counter)
	})

	t.Run("counter from head", func(t *testing.T) {
		head := graph.Hash("_9")
		r := newRepo(t, RejectEmpty)
		require.NoError(t, r.Import(State{
			Commits: map[graph.Hash]graph.Commit{"_9": {Message: "only", Content: `[["a",{"content":"x"}]]`}},
			Head:    &head,
		}))
		assert.Equal(t, uint64(9), r.Export().Counter)
	})

	t.Run("commits without head", func(t *testing.T) {
		r := newRepo(t, RejectEmpty)
		require.NoError(t, r.Import(State{Commits: commits}))

		_, ok := r.Head()
		assert.False(t, ok)
		assert.Equal(t, 0, r.Working().Len())
		assert.Len(t, r.Log(), 2)
	})

	t.Run("nothing", func(t *testing.T) {
		r := newRepo(t, RejectEmpty)
		commitText(t, r, "a", "b", "first")
		require.NoError(t, r.Import(State{}))

		_, ok := r.Head()
		assert.False(t, ok)
		assert.Empty(t, r.Log())
		assert.Equal(t, 0, r.Working().Len())
		assert.Equal(t, graph.Hash("_1"), commitText(t, r, "a", "b", "fresh"))
	})

	t.Run("from JSON with missing fields", func(t *testing.T) {
		var state State
		require.NoError(t, json.Unmarshal([]byte(`{"head":"_1","commits":{"_1":{"message":"m","parent":null,"content":"[[\"a\",{\"n\":1}]]"}}}`), &state))

		r := newRepo(t, RejectEmpty)
		require.NoError(t, r.Import(state))
		record, err := r.Working().Get("a")
		require.NoError(t, err)
		assert.Equal(t, float64(1), record["n"])
	})
}

func TestImportInvalid(t *testing.T) {
	r := newRepo(t, RejectEmpty)
	commitText(t, r, "a", "b", "first")
	before := r.Export()

	missing := graph.Hash("_5")
	err := r.Import(State{Commits: before.Commits, Head: &missing})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	err = r.Import(State{Commits: map[graph.Hash]graph.Commit{
		"_1": {Content: "[]"},
		"_2": {Content: "[]"},
	}})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	assert.Equal(t, before, r.Export())
}
