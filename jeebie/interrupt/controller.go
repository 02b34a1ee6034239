// Package interrupt holds the IE/IF flag bytes. Dispatch is done by the CPU.
package interrupt

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// Requester is the narrow capability peripherals use to raise interrupts.
type Requester interface {
	RequestInterrupt(i addr.Interrupt)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(i addr.Interrupt)

func (f RequesterFunc) RequestInterrupt(i addr.Interrupt) { f(i) }

type Controller struct {
	enable uint8
	flags  uint8
}

// New returns a controller with V-blank requested, as the boot ROM leaves
// it. Only the five request bits are stored.
func New() *Controller {
	return &Controller{flags: uint8(addr.VBlankInterrupt)}
}

func (c *Controller) RequestInterrupt(i addr.Interrupt) {
	c.flags |= uint8(i)
}

// Pending returns the highest priority interrupt that is both enabled and
// requested. Lowest bit wins.
func (c *Controller) Pending() (addr.Interrupt, bool) {
	p := c.enable & c.flags & addr.InterruptMask
	if p == 0 {
		return 0, false
	}
	return addr.Interrupt(p & -p), true
}

// Acknowledge clears the request bit of i.
func (c *Controller) Acknowledge(i addr.Interrupt) {
	c.flags &^= uint8(i)
}

// Read handles IF and IE. The unused upper bits of IF read as 1.
func (c *Controller) Read(address uint16) uint8 {
	switch address {
	case addr.IF:
		return c.flags | 0xE0
	case addr.IE:
		return c.enable
	}
	return 0xFF
}

func (c *Controller) Write(address uint16, value uint8) {
	switch address {
	case addr.IF:
		c.flags = value & addr.InterruptMask
	case addr.IE:
		c.enable = value
	}
}

func (c *Controller) WriteState(w *state.Writer) {
	w.U8(c.enable)
	w.U8(c.flags)
}

func (c *Controller) ReadState(r *state.Reader) {
	c.enable = r.U8()
	c.flags = r.U8() & addr.InterruptMask
}
