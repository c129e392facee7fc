package content

import (
	"testing"

	"patchwork/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	t.Run("creates a record", func(t *testing.T) {
		s := NewStore()
		r, err := s.Save("script.js", Record{"content": "let a = 10;"})
		require.NoError(t, err)
		assert.Equal(t, Record{"content": "let a = 10;"}, r)

		got, err := s.Get("script.js")
		require.NoError(t, err)
		assert.Equal(t, Record{"content": "let a = 10;"}, got)
	})

	t.Run("merges instead of replacing", func(t *testing.T) {
		s := NewStore()
		_, err := s.Save("script.js", Record{"content": "let a = 10;", "flag": true})
		require.NoError(t, err)
		_, err = s.Save("script.js", Record{"content": "let b = 20;"})
		require.NoError(t, err)

		got, err := s.Get("script.js")
		require.NoError(t, err)
		assert.Equal(t, Record{"content": "let b = 20;", "flag": true}, got)
	})

	t.Run("returns the same record on every save", func(t *testing.T) {
		s := NewStore()
		first, err := s.Save("a", Record{"x": 1})
		require.NoError(t, err)
		second, err := s.Save("a", Record{"y": 2})
		require.NoError(t, err)

		second["z"] = "shared"
		assert.Equal(t, "shared", first["z"])
	})

	t.Run("normalises values through the codec", func(t *testing.T) {
		s := NewStore()
		r, err := s.Save("a", Record{"n": 3, "nested": map[string]any{"list": []any{1, "two"}}})
		require.NoError(t, err)
		assert.Equal(t, float64(3), r["n"])
		assert.Equal(t, map[string]any{"list": []any{float64(1), "two"}}, r["nested"])
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		s := NewStore()
		_, err := s.Save("", Record{"content": "x"})
		assert.ErrorIs(t, err, errors.ErrInvalidInput)

		_, err = s.Save("a", nil)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)

		_, err = s.Save("a", Record{"ch": make(chan int)})
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		assert.False(t, s.Exists("a"))
	})
}

func TestStore_SaveBatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SaveBatch(map[string]Record{
		"a.js": {"foo": "bar"},
		"b.js": {"bar": "foo"},
	}))
	require.NoError(t, s.SaveBatch(map[string]Record{
		"a.js": {"a": "b"},
		"b.js": {"c": "d"},
	}))

	a, _ := s.Get("a.js")
	b, _ := s.Get("b.js")
	assert.Equal(t, Record{"a": "b", "foo": "bar"}, a)
	assert.Equal(t, Record{"c": "d", "bar": "foo"}, b)
	assert.Equal(t, []string{"a.js", "b.js"}, s.Names())

	err := s.SaveBatch(map[string]Record{"c.js": {"ok": true}, "": {"bad": true}})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.False(t, s.Exists("c.js"), "a failed batch must not write anything")
}

func TestStore_SaveAll(t *testing.T) {
	s := NewStore()
	_, _ = s.Save("a.js", Record{"foo": "bar"})
	_, _ = s.Save("b.js", Record{"bar": "foo"})
	require.NoError(t, s.SaveAll(Record{"x": "y"}))
	_, _ = s.Save("b.js", Record{"x": "z"})

	a, _ := s.Get("a.js")
	b, _ := s.Get("b.js")
	assert.Equal(t, Record{"foo": "bar", "x": "y"}, a)
	assert.Equal(t, Record{"bar": "foo", "x": "z"}, b)
}

func TestStore_DeleteAndRename(t *testing.T) {
	s := NewStore()
	r, _ := s.Save("script.js", Record{"content": "let a = 10;", "flag": true})
	_, _ = s.Save("other.js", Record{"content": "x"})

	t.Run("delete by record", func(t *testing.T) {
		require.NoError(t, s.DeleteRecord(r))
		assert.False(t, s.Exists("script.js"))
	})

	t.Run("delete missing", func(t *testing.T) {
		err := s.Delete("a.js")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		assert.Equal(t, `there is no record named "a.js"`, err.Error())
	})

	t.Run("rename keeps position", func(t *testing.T) {
		_, _ = s.Save("last.js", Record{"content": "y"})
		require.NoError(t, s.Rename("other.js", "foo.js"))
		assert.Equal(t, []string{"foo.js", "last.js"}, s.Names())
		got, err := s.Get("foo.js")
		require.NoError(t, err)
		assert.Equal(t, Record{"content": "x"}, got)
	})

	t.Run("rename errors", func(t *testing.T) {
		assert.ErrorIs(t, s.Rename("nope.js", "x.js"), errors.ErrNotFound)
		assert.ErrorIs(t, s.Rename("foo.js", "last.js"), errors.ErrInvalidInput)
		assert.ErrorIs(t, s.Rename("foo.js", ""), errors.ErrInvalidInput)
	})
}

func TestStore_NameOf(t *testing.T) {
	s := NewStore()
	file, _ := s.Save("script.js", Record{"foo": "bar"})
	_, _ = s.Save("foo.js", Record{"foo": "bar"})

	name, err := s.NameOf(file)
	require.NoError(t, err)
	assert.Equal(t, "script.js", name)

	_, err = s.NameOf(Record{"foo": "bar"})
	assert.ErrorIs(t, err, errors.ErrNotFound, "lookup is by identity, not value")
}

func TestStore_Clone(t *testing.T) {
	s := NewStore()
	_, _ = s.Save("a", Record{"nested": map[string]any{"v": "1"}})

	c := s.Clone()
	orig, _ := s.Get("a")
	orig["nested"].(map[string]any)["v"] = "2"
	_, _ = s.Save("b", Record{"v": "3"})

	cloned, _ := c.Get("a")
	assert.Equal(t, "1", cloned["nested"].(map[string]any)["v"])
	assert.False(t, c.Exists("b"))
}

func TestCodec(t *testing.T) {
	s := NewStore()
	_, _ = s.Save("x", Record{"content": "let a = 10;"})
	_, _ = s.Save("y", Record{"content": "<b>&</b>", "b": true, "a": 1})

	text, err := Encode(s)
	require.NoError(t, err)
	assert.Equal(t, `[["x",{"content":"let a = 10;"}],["y",{"a":1,"b":true,"content":"<b>&</b>"}]]`, text)

	decoded, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, s.All(), decoded.All())

	empty, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, "[]", MustEncode(empty))
}

func TestDecodeInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `{{`,
		"not a pair":     `[["a"]]`,
		"non-object":     `[["c","hello winter!"]]`,
		"duplicate name": `[["a",{}],["a",{}]]`,
		"empty name":     `[["",{}]]`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(text)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}
