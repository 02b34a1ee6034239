package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-jeebie-color/jeebie/state"
)

func TestWorkRAMBanking(t *testing.T) {
	m := NewWorkRAM()

	t.Run("monochrome ignores SVBK", func(t *testing.T) {
		m.Write(0xD000, 0x11)
		m.WriteSVBK(3)
		assert.Equal(t, uint8(0x11), m.Read(0xD000))
		assert.Equal(t, uint8(0xFF), m.ReadSVBK())
	})

	t.Run("color banks 1-7", func(t *testing.T) {
		m.SetCGB(true)
		for bank := uint8(1); bank < 8; bank++ {
			m.WriteSVBK(bank)
			m.Write(0xD123, bank*3)
		}
		for bank := uint8(1); bank < 8; bank++ {
			m.WriteSVBK(bank)
			assert.Equal(t, bank*3, m.Read(0xD123), "bank %d", bank)
		}
	})

	t.Run("bank 0 selects bank 1", func(t *testing.T) {
		m.WriteSVBK(1)
		m.Write(0xD000, 0xAB)
		m.WriteSVBK(0)
		assert.Equal(t, uint8(0xAB), m.Read(0xD000))
		assert.Equal(t, uint8(0xF8), m.ReadSVBK())
	})

	t.Run("bank 0 region is fixed", func(t *testing.T) {
		m.WriteSVBK(5)
		m.Write(0xC010, 0x77)
		m.WriteSVBK(2)
		assert.Equal(t, uint8(0x77), m.Read(0xC010))
	})
}

func TestWorkRAMState(t *testing.T) {
	m := NewWorkRAM()
	m.SetCGB(true)
	m.WriteSVBK(4)
	m.Write(0xDFFF, 0x12)
	m.WriteHRAM(0xFF80, 0x34)
	m.WriteHRAM(0xFFFE, 0x56)

	w := state.NewWriter()
	m.WriteState(w)

	other := NewWorkRAM()
	other.SetCGB(true)
	r := state.NewReader(w.Bytes())
	other.ReadState(r)
	require.NoError(t, r.Finish())
	assert.Equal(t, m, other)
}

func TestWorkRAMStateRejectsBank(t *testing.T) {
	for _, svbk := range []uint8{0x08, 0x0F, 0xFF} {
		m := NewWorkRAM()
		w := state.NewWriter()
		m.WriteState(w)
		data := w.Bytes()
		data[len(data)-1] = svbk

		r := state.NewReader(data)
		NewWorkRAM().ReadState(r)
		assert.ErrorIs(t, r.Finish(), state.ErrOutOfRange, "svbk %#02x", svbk)
	}
}
