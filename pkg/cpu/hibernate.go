package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"govm/pkg/hack"
)

// machineState is the JSON-serializable snapshot of CPU control state.
type machineState struct {
	A       uint16 `json:"a"`
	D       uint16 `json:"d"`
	PC      uint16 `json:"pc"`
	Halted  bool   `json:"halted"`
	Cycles  uint64 `json:"cycles"`
	Fault   string `json:"fault,omitempty"`
	ROMSize int    `json:"rom_size"`
}

// HibernateToBytes serialises the machine into an in-memory ZIP archive
// holding cpu_state.json, rom.bin and ram.bin.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		A:       c.A,
		D:       c.D,
		PC:      c.PC,
		Halted:  c.Halted,
		Cycles:  c.Cycles,
		ROMSize: programLength(c.ROM[:]),
	}
	if c.Fault != nil {
		state.Fault = c.Fault.Error()
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "rom.bin", uint16SliceToLE(c.ROM[:state.ROMSize])); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "ram.bin", uint16SliceToLE(c.RAM[:])); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies an archive produced by HibernateToBytes.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}

	rom, err := readZipEntry(fileMap, "rom.bin")
	if err != nil {
		return err
	}
	ram, err := readZipEntry(fileMap, "ram.bin")
	if err != nil {
		return err
	}

	c.ROM = [hack.ROMSize]uint16{}
	leToUint16Slice(rom, c.ROM[:])
	c.RAM = [hack.RAMSize]uint16{}
	leToUint16Slice(ram, c.RAM[:])

	c.A = state.A
	c.D = state.D
	c.PC = state.PC
	c.Halted = state.Halted
	c.Cycles = state.Cycles
	c.Fault = nil
	if state.Fault != "" {
		c.Fault = fmt.Errorf("%w: %s", ErrInvalidInstr, state.Fault)
	}
	return nil
}

func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.RestoreFromBytes(data)
}

// programLength trims trailing zero words, which are indistinguishable from unloaded ROM.
func programLength(rom []uint16) int {
	n := len(rom)
	for n > 0 && rom[n-1] == 0 {
		n--
	}
	return n
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func leToUint16Slice(src []byte, dst []uint16) {
	for i := 0; i+1 < len(src) && i/2 < len(dst); i += 2 {
		dst[i/2] = binary.LittleEndian.Uint16(src[i:])
	}
}
