package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

func TestWalk_DepthFirstFilesOnly(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "b.jpg"))
	touch(t, filepath.Join(root, "a", "z.jpg"))
	touch(t, filepath.Join(root, "a", "y", "x.jpg"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	got, err := collect(root, Options{})
	require.NoError(t, err)

	var rel []string
	for _, f := range got {
		rel = append(rel, f.RelPath())
	}
	assert.Equal(t, []string{
		filepath.Join("a", "y", "x.jpg"),
		filepath.Join("a", "z.jpg"),
		"b.jpg",
	}, rel)
	assert.Equal(t, int64(1), got[2].Size)
	assert.Equal(t, ".", got[2].RelDir)
}

func TestWalk_RegexFilterOnlyAppliesToFiles(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "20-01-02 03-04-05.jpg"))
	touch(t, filepath.Join(root, "holiday.jpg"))
	// 目录名不匹配也必须递归进去。
	touch(t, filepath.Join(root, "nested", "21-12-31 23-59-59.mov"))

	re := regexp.MustCompile(`^\d{2}-\d{2}-\d{2}.\d{2}-\d{2}-\d{2}(.+)$`)
	got, err := collect(root, Options{Filter: MatchName(re)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "20-01-02 03-04-05.jpg", got[0].Name())
	assert.Equal(t, "21-12-31 23-59-59.mov", got[1].Name())
}

func TestWalk_UppercaseFilter(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.JPG"))
	touch(t, filepath.Join(root, "b.jpg"))
	touch(t, filepath.Join(root, "Ärger.png"))

	got, err := collect(root, Options{Filter: HasUppercase()})
	require.NoError(t, err)

	var names []string
	for _, f := range got {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"a.JPG", "Ärger.png"}, names)
}

func TestWalk_ExcludeDirs(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "out", "a.jpg"))
	touch(t, filepath.Join(root, "in", "b.jpg"))

	got, err := collect(root, Options{ExcludeDirs: []string{"out"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join("in", "b.jpg"), got[0].RelPath())
}

func TestWalk_ExcludeFiles(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "renamer.json"))
	touch(t, filepath.Join(root, "a.jpg"))

	got, err := collect(root, Options{ExcludeFiles: []string{filepath.Join(root, "renamer.json")}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.jpg", got[0].Name())
}

func TestWalk_StopEarly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))

	var seen []domain.File
	err := Walk(root, Options{}, func(f domain.File) error {
		seen = append(seen, f)
		return ErrStop
	})
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestWalk_UnreadableDirIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("需要非 root 的 unix 权限语义")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	touch(t, filepath.Join(locked, "a.jpg"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := collect(root, Options{})
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "x", "b.jpg"))

	n, err := Count(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func collect(root string, opts Options) ([]domain.File, error) {
	var files []domain.File
	err := Walk(root, opts, func(f domain.File) error {
		files = append(files, f)
		return nil
	})
	return files, err
}
