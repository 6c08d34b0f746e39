package build

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govm/pkg/translator"
	"govm/pkg/vfs"
	"govm/pkg/vm"
)

func TestFromPathDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sys.vm"), []byte("function Sys.init 0\ncall Main.seven 0\nreturn\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.vm"), []byte("function Main.seven 0\npush constant 7\nreturn\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	prog, err := FromPath(dir, translator.Options{Bootstrap: true})
	require.NoError(t, err)
	assert.Len(t, prog.Result.Units, 2)
	assert.NotEmpty(t, prog.Lines)

	c, err := prog.Machine()
	require.NoError(t, err)
	require.NoError(t, c.RunUntilDone())
	assert.True(t, c.Halted)

	top, ok := c.Top()
	require.True(t, ok)
	assert.EqualValues(t, 7, top)
}

func TestFromPathMissing(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "nope.vm"), translator.Options{})
	assert.Error(t, err)
}

func TestFromSourceParseError(t *testing.T) {
	_, err := FromSource(translator.Units{"Bad.vm": "frobnicate"}, translator.Options{})
	assert.True(t, errors.Is(err, vm.ErrInvalidInstruction))
}

func TestFromSourceNoUnits(t *testing.T) {
	_, err := FromSource(translator.Units{"a.txt": "add"}, translator.Options{})
	assert.True(t, errors.Is(err, translator.ErrNoUnits))
	assert.False(t, errors.Is(err, vfs.ErrFileNotFound))
}
