package cpu

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHibernateRoundTrip(t *testing.T) {
	c1 := load(t, `
    @7
    D=A
    @R3
    M=D
`+haltLoop)
	c1.Step()
	c1.Step()
	c1.RAM[20000] = 0xBEEF

	data, err := c1.HibernateToBytes()
	require.NoError(t, err)

	c2 := NewCPU()
	require.NoError(t, c2.RestoreFromBytes(data))
	assert.Equal(t, c1.A, c2.A)
	assert.Equal(t, c1.D, c2.D)
	assert.Equal(t, c1.PC, c2.PC)
	assert.Equal(t, c1.Cycles, c2.Cycles)
	assert.Equal(t, c1.ROM, c2.ROM)
	assert.Equal(t, c1.RAM, c2.RAM)

	require.NoError(t, c2.RunUntilDone())
	assert.EqualValues(t, 7, c2.RAM[3])
}

func TestHibernateFile(t *testing.T) {
	c1 := run(t, `
    @R0
    M=-1
`)
	path := filepath.Join(t.TempDir(), "state.zip")
	require.NoError(t, c1.HibernateToFile(path))

	c2 := NewCPU()
	require.NoError(t, c2.RestoreFromFile(path))
	assert.True(t, c2.Halted)
	assert.EqualValues(t, 0xFFFF, c2.RAM[0])
}

func TestRestoreRejectsGarbage(t *testing.T) {
	c := NewCPU()
	assert.Error(t, c.RestoreFromBytes([]byte("not a zip")))
}
