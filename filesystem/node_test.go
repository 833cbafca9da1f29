package filesystem

import (
	"testing"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	valid := []string{"a", "notes.txt", ".hidden", "trailing.", "with space", "ünïcode", "a-b_c"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q", name)
	}

	invalid := []string{"", ".", "..", "a/b", `a\b`, "a:b", "a*b", "a?b", `a"b`, "a<b", "a>b", "a|b", "a&b"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), simfs.ErrInvalidName, "name %q", name)
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"c.txt":          "txt",
		"archive.tar.gz": "gz",
		"Makefile":       "",
		".bashrc":        "",
		"trailing.":      "",
		"a.b":            "b",
	}
	for name, want := range tests {
		assert.Equal(t, want, Extension(name), "name %q", name)
	}
}

func TestNode_AddRemoveChild(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)

	dir := newDirectory("docs", t0)
	f := newFile("a.txt", t0)
	g := newFile("b.txt", t0)

	dir.AddChild(f, t1)
	dir.AddChild(g, t1)
	assert.Same(t, dir, f.parent)
	assert.Equal(t, t1, dir.updatedAt)
	assert.Same(t, f, dir.ChildByName("a.txt"))
	assert.Nil(t, dir.ChildByName("A.TXT"), "lookup is case-sensitive")

	require.True(t, dir.RemoveChild(f, t2))
	assert.Nil(t, f.parent)
	assert.Nil(t, dir.ChildByName("a.txt"))
	assert.Equal(t, []*Node{g}, dir.children)
	assert.Equal(t, t2, dir.updatedAt)

	assert.False(t, dir.RemoveChild(f, t2), "already detached")
}

func TestNode_RemoveChildByIdentity(t *testing.T) {
	t.Parallel()

	now := time.Now()
	dir := newDirectory("d", now)
	first := newFile("dup", now)
	second := newFile("dup", now)

	// duplicates can only come from a damaged image; the first one wins lookups
	dir.AddChild(first, now)
	dir.AddChild(second, now)
	assert.Same(t, first, dir.ChildByName("dup"))

	require.True(t, dir.RemoveChild(first, now))
	assert.Same(t, second, dir.ChildByName("dup"))
	assert.Len(t, dir.children, 1)
}

func TestNode_Path(t *testing.T) {
	t.Parallel()

	now := time.Now()
	root := newDirectory(rootName, now)
	a := newDirectory("a", now)
	b := newFile("b.txt", now)
	root.AddChild(a, now)
	a.AddChild(b, now)

	assert.Equal(t, "/", root.Path())
	assert.Equal(t, "/a", a.Path())
	assert.Equal(t, "/a/b.txt", b.Path())
	assert.True(t, root.IsRoot())
	assert.False(t, a.IsRoot())

	assert.True(t, b.isWithin(root))
	assert.True(t, a.isWithin(a))
	assert.False(t, a.isWithin(b))
}

func TestNode_Duplicate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	src := newFile("f.txt", now)
	src.content = "payload"

	dup := src.duplicate("g.md", now)
	assert.NotEqual(t, src.id, dup.id)
	assert.Equal(t, "g.md", dup.name)
	assert.Equal(t, "payload", dup.content)
	assert.Equal(t, "txt", dup.extension, "extension is carried from the source")
	assert.Nil(t, dup.parent)
}
