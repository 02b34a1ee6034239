package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// bankedROM returns a ROM where every byte holds its bank number.
func bankedROM(banks int) []uint8 {
	rom := make([]uint8, banks*romBankSize)
	for i := range rom {
		rom[i] = uint8(i / romBankSize)
	}
	return rom
}

func TestBankZeroAliasing(t *testing.T) {
	rom := bankedROM(64)
	mappers := []struct {
		name string
		mbc  MBC
	}{
		{"MBC1", NewMBC1(rom, 0)},
		{"MBC2", NewMBC2(rom[:16*romBankSize])},
		{"MBC3", NewMBC3(rom, 0, false, nil)},
		{"MBC5", NewMBC5(rom, 0, false)},
	}

	for _, tt := range mappers {
		t.Run(tt.name, func(t *testing.T) {
			// MBC2 decodes the ROM bank register on address bit 8
			tt.mbc.WriteControl(0x2100, 0x00)
			bank0 := tt.mbc.ReadBankedROM(0x4000)

			tt.mbc.WriteControl(0x2100, 0x01)
			bank1 := tt.mbc.ReadBankedROM(0x4000)

			assert.Equal(t, uint8(1), bank0)
			assert.Equal(t, bank1, bank0)
		})
	}
}

func TestMBC1(t *testing.T) {
	t.Run("ROM bank 0 is fixed", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(4), 0)
		mbc.WriteControl(0x2000, 3)
		assert.Equal(t, uint8(0), mbc.ReadROM(0x0000))
		assert.Equal(t, uint8(0), mbc.ReadROM(0x3FFF))
	})

	t.Run("ROM bank switching", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(4), 0)
		tests := []struct {
			name     string
			bankNum  uint8
			wantByte uint8
		}{
			{"bank 2", 2, 2},
			{"bank 3", 3, 3},
			{"5 bit mask", 0x21, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mbc.WriteControl(0x2000, tt.bankNum)
				assert.Equal(t, tt.wantByte, mbc.ReadBankedROM(0x4000))
			})
		}
	})

	t.Run("upper bank bits and wraparound", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(64), 0)
		mbc.WriteControl(0x2000, 0x05)
		mbc.WriteControl(0x4000, 0x01)
		assert.Equal(t, uint8(0x25), mbc.ReadBankedROM(0x4000))

		small := NewMBC1(bankedROM(8), 0)
		small.WriteControl(0x2000, 0x05)
		small.WriteControl(0x4000, 0x01)
		assert.Equal(t, uint8(5), small.ReadBankedROM(0x4000), "bank 37 wraps to 5 with 8 banks")
	})

	t.Run("mode 1 applies bank2 to the fixed region", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(64), 0)
		mbc.WriteControl(0x4000, 0x01)
		assert.Equal(t, uint8(0), mbc.ReadROM(0x0000))
		mbc.WriteControl(0x6000, 0x01)
		assert.Equal(t, uint8(0x20), mbc.ReadROM(0x0000))
	})

	t.Run("RAM enable gating", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(2), 0x8000)
		assert.Equal(t, uint8(0xFF), mbc.ReadRAM(0xA000), "disabled by default")

		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteRAM(0xA000, 0x42)
		assert.Equal(t, uint8(0x42), mbc.ReadRAM(0xA000))

		mbc.WriteControl(0x0000, 0x00)
		assert.Equal(t, uint8(0xFF), mbc.ReadRAM(0xA000))
		mbc.WriteRAM(0xA000, 0x99)

		mbc.WriteControl(0x1FFF, 0xFA)
		assert.Equal(t, uint8(0x42), mbc.ReadRAM(0xA000), "writes while disabled are dropped")
	})

	t.Run("RAM banking in mode 1", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(2), 0x8000)
		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteControl(0x6000, 1)

		for bank := uint8(0); bank < 4; bank++ {
			mbc.WriteControl(0x4000, bank)
			mbc.WriteRAM(0xA000, 0x40+bank)
		}
		for bank := uint8(0); bank < 4; bank++ {
			mbc.WriteControl(0x4000, bank)
			assert.Equal(t, 0x40+bank, mbc.ReadRAM(0xA000), "bank %d", bank)
		}

		mbc.WriteControl(0x6000, 0)
		assert.Equal(t, uint8(0x40), mbc.ReadRAM(0xA000), "mode 0 always uses RAM bank 0")
	})
}

func TestMBC2(t *testing.T) {
	mbc := NewMBC2(bankedROM(16))

	t.Run("address bit 8 selects the register", func(t *testing.T) {
		mbc.WriteControl(0x2100, 0x07)
		assert.Equal(t, uint8(7), mbc.ReadBankedROM(0x4000))

		mbc.WriteControl(0x2000, 0x03)
		assert.Equal(t, uint8(7), mbc.ReadBankedROM(0x4000), "bit 8 clear is RAM enable")
	})

	t.Run("half byte RAM mirrored", func(t *testing.T) {
		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteRAM(0xA001, 0xAB)
		assert.Equal(t, uint8(0xFB), mbc.ReadRAM(0xA001))
		assert.Equal(t, uint8(0xFB), mbc.ReadRAM(0xA201))
		assert.Equal(t, uint8(0xFB), mbc.ReadRAM(0xBE01))
	})

	t.Run("upper half of the address space ignored", func(t *testing.T) {
		mbc.WriteControl(0x4100, 0x02)
		assert.Equal(t, uint8(7), mbc.ReadBankedROM(0x4000))
	})
}

func TestMBC3(t *testing.T) {
	t.Run("7 bit ROM bank", func(t *testing.T) {
		mbc := NewMBC3(bankedROM(128), 0, false, nil)
		mbc.WriteControl(0x2000, 0x7F)
		assert.Equal(t, uint8(0x7F), mbc.ReadBankedROM(0x4000))
		mbc.WriteControl(0x2000, 0x80)
		assert.Equal(t, uint8(1), mbc.ReadBankedROM(0x4000))
	})

	t.Run("RAM banks", func(t *testing.T) {
		mbc := NewMBC3(bankedROM(2), 0x8000, false, nil)
		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteControl(0x4000, 0x02)
		mbc.WriteRAM(0xA123, 0x5A)
		mbc.WriteControl(0x4000, 0x00)
		assert.Equal(t, uint8(0x00), mbc.ReadRAM(0xA123))
		mbc.WriteControl(0x4000, 0x02)
		assert.Equal(t, uint8(0x5A), mbc.ReadRAM(0xA123))
	})

	t.Run("RTC select without a clock reads open bus", func(t *testing.T) {
		mbc := NewMBC3(bankedROM(2), 0x2000, false, nil)
		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteControl(0x4000, 0x08)
		assert.Equal(t, uint8(0xFF), mbc.ReadRAM(0xA000))
	})
}

func TestMBC5(t *testing.T) {
	t.Run("9 bit ROM bank", func(t *testing.T) {
		rom := make([]uint8, 512*romBankSize)
		for bank := 0; bank < 512; bank++ {
			rom[bank*romBankSize] = uint8(bank)
			rom[bank*romBankSize+1] = uint8(bank >> 8)
		}
		mbc := NewMBC5(rom, 0, false)
		mbc.WriteControl(0x2000, 0x34)
		mbc.WriteControl(0x3000, 0x01)
		assert.Equal(t, uint8(0x34), mbc.ReadBankedROM(0x4000))
		assert.Equal(t, uint8(0x01), mbc.ReadBankedROM(0x4001))
	})

	t.Run("RAM bank mask with rumble", func(t *testing.T) {
		mbc := NewMBC5(bankedROM(2), 0x20000, true)
		mbc.WriteControl(0x0000, 0x0A)
		mbc.WriteControl(0x4000, 0x09)
		mbc.WriteRAM(0xA000, 0x11)
		mbc.WriteControl(0x4000, 0x01)
		assert.Equal(t, uint8(0x11), mbc.ReadRAM(0xA000), "bit 3 drives the motor")
	})
}

func TestNoMBC(t *testing.T) {
	mbc := NewNoMBC(bankedROM(2), 0x2000)
	mbc.WriteControl(0x2000, 0x05)
	assert.Equal(t, uint8(1), mbc.ReadBankedROM(0x4000))
	mbc.WriteRAM(0xA010, 0x77)
	assert.Equal(t, uint8(0x77), mbc.ReadRAM(0xA010))

	null := NewNullMBC()
	assert.Equal(t, uint8(0xFF), null.ReadROM(0x0100))
	assert.Equal(t, uint8(0xFF), null.ReadRAM(0xA000))
	null.WriteRAM(0xA000, 1)
}

func TestMapperState(t *testing.T) {
	src := NewMBC1(bankedROM(64), 0x8000)
	src.WriteControl(0x0000, 0x0A)
	src.WriteControl(0x2000, 0x07)
	src.WriteControl(0x4000, 0x01)
	src.WriteControl(0x6000, 0x01)
	src.WriteRAM(0xB000, 0xCD)

	w := state.NewWriter()
	src.WriteState(w)

	dst := NewMBC1(bankedROM(64), 0x8000)
	r := state.NewReader(w.Bytes())
	dst.ReadState(r)
	require.NoError(t, r.Finish())
	assert.Equal(t, src, dst)
}

func TestBatterySave(t *testing.T) {
	mbc := NewMBC5(bankedROM(2), 0x2000, false)
	mbc.WriteControl(0x0000, 0x0A)
	mbc.WriteRAM(0xA000, 0x12)
	data := mbc.ExportSave()
	require.Len(t, data, 0x2000)

	other := NewMBC5(bankedROM(2), 0x2000, false)
	require.NoError(t, other.ImportSave(data))
	other.WriteControl(0x0000, 0x0A)
	assert.Equal(t, uint8(0x12), other.ReadRAM(0xA000))

	assert.ErrorIs(t, other.ImportSave(make([]byte, 10)), ErrSaveSize)
}
