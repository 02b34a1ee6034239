package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptVector(t *testing.T) {
	assert.Equal(t, uint16(0x40), VBlankInterrupt.Vector())
	assert.Equal(t, uint16(0x48), LCDSTATInterrupt.Vector())
	assert.Equal(t, uint16(0x50), TimerInterrupt.Vector())
	assert.Equal(t, uint16(0x58), SerialInterrupt.Vector())
	assert.Equal(t, uint16(0x60), JoypadInterrupt.Vector())
	assert.Equal(t, "Timer", TimerInterrupt.String())
}
