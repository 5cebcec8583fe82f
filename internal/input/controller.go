// Package input implements controller handling for the NES.
package input

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Convenience constants for shorter names used by front-ends
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller represents a standard NES controller
type Controller struct {
	// Current button states (A, B, Select, Start, Up, Down, Left, Right)
	buttons uint8

	// Shift register for serial reading
	shiftRegister uint8
	strobe        bool

	// Bit position in the read sequence; 8 and beyond reads as 1
	bitPosition uint8
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons replaces every button state with the given mask.
func (c *Controller) SetButtons(buttons Button) {
	c.buttons = uint8(buttons)
}

// Buttons returns the currently held buttons.
func (c *Controller) Buttons() Button {
	return Button(c.buttons)
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles writes to the controller register ($4016)
func (c *Controller) Write(value uint8) {
	wasStrobe := c.strobe
	c.strobe = (value & 1) != 0

	// The shift register follows the buttons while strobe is high and
	// latches them on the falling edge.
	if c.strobe || wasStrobe {
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	}
}

// Read returns the next button bit in bit 0 ($4016/$4017)
func (c *Controller) Read() uint8 {
	if c.strobe {
		// While strobe is held the pad reports the live A button
		c.bitPosition = 0
		return c.buttons & 1
	}

	if c.bitPosition >= 8 {
		return 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return bit
}

// Reset resets the controller state
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.bitPosition = 0
}

// GetBitPosition returns the current bit position (for testing)
func (c *Controller) GetBitPosition() uint8 {
	return c.bitPosition
}
