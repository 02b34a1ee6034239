package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-jeebie-color/jeebie/state"
)

func makeROM(cartType, romSize, ramSize, cgb uint8, title string) []byte {
	banks := 2 << romSize
	data := bankedROM(banks)
	copy(data[titleAddress:titleAddress+titleLength], make([]byte, titleLength))
	copy(data[titleAddress:], title)
	data[cgbFlagAddress] = cgb
	data[cartridgeTypeAddress] = cartType
	data[romSizeAddress] = romSize
	data[ramSizeAddress] = ramSize
	data[headerChecksumAddress] = HeaderChecksum(data)
	return data
}

func TestNewCartridgeWithData(t *testing.T) {
	tests := []struct {
		name     string
		cartType uint8
		ramSize  uint8
		kind     Kind
		ram      int
		battery  bool
	}{
		{"ROM only", 0x00, 0x00, KindNone, 0, false},
		{"MBC1+RAM+BATTERY", 0x03, 0x03, KindMBC1, 0x8000, true},
		{"MBC2", 0x05, 0x00, KindMBC2, mbc2RAMSize, false},
		{"MBC3+TIMER+RAM+BATTERY", 0x10, 0x02, KindMBC3, 0x2000, true},
		{"MBC5+RAM", 0x1A, 0x04, KindMBC5, 0x20000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := NewCartridgeWithData(makeROM(tt.cartType, 1, tt.ramSize, 0x00, "TEST"), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cart.Kind())
			assert.Equal(t, tt.ram, cart.RAMSize())
			assert.Equal(t, tt.battery, cart.HasBattery())
			assert.Equal(t, "TEST", cart.Title())
		})
	}
}

func TestCartridgeRejects(t *testing.T) {
	t.Run("header checksum", func(t *testing.T) {
		data := makeROM(0x00, 0, 0, 0, "BAD")
		data[headerChecksumAddress]++
		_, err := NewCartridgeWithData(data, nil)
		assert.ErrorIs(t, err, ErrHeaderChecksum)
	})

	t.Run("unsupported mapper", func(t *testing.T) {
		_, err := NewCartridgeWithData(makeROM(0xFC, 0, 0, 0, "CAMERA"), nil)
		assert.ErrorIs(t, err, ErrUnsupportedMapper)
	})

	t.Run("too small", func(t *testing.T) {
		_, err := NewCartridgeWithData(make([]byte, 0x100), nil)
		assert.ErrorIs(t, err, ErrROMTooSmall)
	})
}

func TestCartridgeCGBFlag(t *testing.T) {
	cart, err := NewCartridgeWithData(makeROM(0x19, 1, 0, 0x80, "COLOR"), nil)
	require.NoError(t, err)
	assert.True(t, cart.CGBSupported())
	assert.False(t, cart.CGBOnly())

	cart, err = NewCartridgeWithData(makeROM(0x19, 1, 0, 0xC0, "ONLY"), nil)
	require.NoError(t, err)
	assert.True(t, cart.CGBOnly())
}

func TestCartridgeRouting(t *testing.T) {
	cart, err := NewCartridgeWithData(makeROM(0x03, 2, 0x02, 0, "ROUTE"), nil)
	require.NoError(t, err)

	cart.Write(0x2000, 0x03)
	assert.Equal(t, uint8(3), cart.Read(0x4000))
	assert.Equal(t, uint8(0), cart.Read(0x0000))

	cart.Write(0x0000, 0x0A)
	cart.Write(0xA000, 0x99)
	assert.Equal(t, uint8(0x99), cart.Read(0xA000))
	assert.Equal(t, uint8(0xFF), cart.Read(0xC000))
}

func TestCartridgeState(t *testing.T) {
	data := makeROM(0x03, 2, 0x02, 0, "STATE")
	cart, err := NewCartridgeWithData(data, nil)
	require.NoError(t, err)
	cart.Write(0x2000, 0x05)

	w := state.NewWriter()
	cart.WriteState(w)

	t.Run("same mapper", func(t *testing.T) {
		other, err := NewCartridgeWithData(data, nil)
		require.NoError(t, err)
		r := state.NewReader(w.Bytes())
		other.ReadState(r)
		require.NoError(t, r.Finish())
		assert.Equal(t, uint8(5), other.Read(0x4000))
	})

	t.Run("different mapper", func(t *testing.T) {
		other, err := NewCartridgeWithData(makeROM(0x19, 2, 0, 0, "OTHER"), nil)
		require.NoError(t, err)
		r := state.NewReader(w.Bytes())
		other.ReadState(r)
		assert.ErrorIs(t, r.Err(), state.ErrMapperMismatch)
	})
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "POKEMON", cleanGameboyTitle([]byte("POKEMON\x00\x00\x00\x00\x00\x00\x00\x00\x00")))
	assert.Equal(t, "(Untitled)", cleanGameboyTitle(make([]byte, 16)))
	assert.Equal(t, "A?B", cleanGameboyTitle([]byte{'A', 0x01, 'B', 0}))
}
