package project

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(g *Graph, ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		n := g.Node(id)
		out[i] = n.Name + "@" + n.Version
	}
	return out
}

func TestBuildGraph_Reachable(t *testing.T) {
	t.Parallel()

	// app -> liba -> shared 1.0.0, app -> libb -> shared ^1 (diamond), shared 2.0.0 is unreachable
	lock := &Lockfile{Packages: []LockedPackage{
		{Name: "app", Version: "0.1.0", Dependencies: []string{"liba", "libb"}},
		{Name: "liba", Version: "0.2.0", Dependencies: []string{"shared 1.0.0"}},
		{Name: "libb", Version: "1.0.0", Dependencies: []string{"shared ^1.0"}},
		{Name: "shared", Version: "1.0.0"},
		{Name: "shared", Version: "2.0.0"},
	}}
	g, err := BuildGraph(lock)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())

	root, err := g.Find("app", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"app@0.1.0", "liba@0.2.0", "shared@1.0.0", "libb@1.0.0"}, names(g, g.Reachable(root)))
}

func TestBuildGraph_Cycle(t *testing.T) {
	t.Parallel()

	lock := &Lockfile{Packages: []LockedPackage{
		{Name: "a", Version: "1.0.0", Dependencies: []string{"b"}},
		{Name: "b", Version: "1.0.0", Dependencies: []string{"a 1.0.0"}},
	}}
	g, err := BuildGraph(lock)
	require.NoError(t, err)

	root, err := g.Find("a", "1.0.0")
	require.NoError(t, err)
	assert.Len(t, g.Reachable(root), 2)
}

func TestBuildGraph_DeepChain(t *testing.T) {
	t.Parallel()

	const depth = 20000
	lock := &Lockfile{}
	for i := 0; i < depth; i++ {
		pkg := LockedPackage{Name: "p" + strconv.Itoa(i), Version: "1.0.0"}
		if i+1 < depth {
			pkg.Dependencies = []string{"p" + strconv.Itoa(i+1)}
		}
		lock.Packages = append(lock.Packages, pkg)
	}
	g, err := BuildGraph(lock)
	require.NoError(t, err)
	assert.Len(t, g.Reachable(0), depth)
}

func TestBuildGraph_Errors(t *testing.T) {
	t.Parallel()

	_, err := BuildGraph(&Lockfile{Packages: []LockedPackage{
		{Name: "app", Version: "0.1.0", Dependencies: []string{"missing"}},
	}})
	assert.Error(t, err)

	_, err = BuildGraph(&Lockfile{Packages: []LockedPackage{
		{Name: "app", Version: "0.1.0", Dependencies: []string{"dup"}},
		{Name: "dup", Version: "1.0.0"},
		{Name: "dup", Version: "2.0.0"},
	}})
	assert.ErrorContains(t, err, "ambiguous")

	_, err = BuildGraph(&Lockfile{Packages: []LockedPackage{
		{Name: "app", Version: "0.1.0", Dependencies: []string{"lib 3.0.0"}},
		{Name: "lib", Version: "1.0.0"},
	}})
	assert.Error(t, err)
}

func TestParseDependencyRef(t *testing.T) {
	t.Parallel()

	ref, err := ParseDependencyRef("serde 1.0.0 (registry+https://example.com/index)")
	require.NoError(t, err)
	assert.Equal(t, DependencyRef{Name: "serde", Version: "1.0.0", Source: "registry+https://example.com/index"}, ref)

	ref, err = ParseDependencyRef(" liba ")
	require.NoError(t, err)
	assert.Equal(t, DependencyRef{Name: "liba"}, ref)

	_, err = ParseDependencyRef("a b c")
	assert.Error(t, err)
}

func TestLockfileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), LockFileName)
	lock := &Lockfile{Version: 1, Packages: []LockedPackage{
		{Name: "app", Version: "0.1.0", Dependencies: []string{"liba 0.2.0"}},
		{Name: "liba", Version: "0.2.0", Source: "path+../liba"},
	}}
	require.NoError(t, WriteLockfile(path, lock))

	loaded, err := LoadLockfile(path)
	require.NoError(t, err)
	assert.Equal(t, lock, loaded)

	found, err := FindLockfile(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
