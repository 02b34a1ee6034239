package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
)

func TestJoypadSelection(t *testing.T) {
	j := NewJoypad(&irqRecorder{})
	j.Press(JoypadA)
	j.Press(JoypadDown)

	testCases := []struct {
		desc string
		p1   uint8
		want uint8
	}{
		{desc: "no group selected", p1: 0x30, want: 0xFF},
		{desc: "buttons", p1: 0x10, want: 0xDE},
		{desc: "d-pad", p1: 0x20, want: 0xE7},
		{desc: "both groups are ANDed", p1: 0x00, want: 0xC6},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			j.Write(tC.p1)
			assert.Equal(t, tC.want, j.Read())
		})
	}
}

func TestJoypadInterrupt(t *testing.T) {
	irq := &irqRecorder{}
	j := NewJoypad(irq)

	j.Press(JoypadStart)
	assert.Equal(t, []addr.Interrupt{addr.JoypadInterrupt}, irq.requests)

	j.Press(JoypadStart)
	assert.Len(t, irq.requests, 1, "holding a key does not retrigger")

	j.Release(JoypadStart)
	assert.Len(t, irq.requests, 1, "releases never interrupt")

	j.Write(0x10)
	assert.Equal(t, uint8(0xDF), j.Read())
}
