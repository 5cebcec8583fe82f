package input

// InputState represents the state of all input devices
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
	Zapper      *Zapper
}

// NewInputState creates a new input state with two controllers and a
// zapper that reads light from sensor.
func NewInputState(sensor LightSensor) *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
		Zapper:      NewZapper(sensor),
	}
}

// Controller returns the controller on port 0 or 1, or nil.
func (is *InputState) Controller(port int) *Controller {
	switch port {
	case 0:
		return is.Controller1
	case 1:
		return is.Controller2
	default:
		return nil
	}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
	is.Zapper.Reset()
}

// Read reads from controller ports. Only the low five bits are driven;
// the caller supplies the rest from open bus.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | is.Zapper.Read()
	default:
		return 0
	}
}

// Write writes to controller ports
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		// Both controllers receive strobe signals
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}

// State is the serializable port state. Held buttons and the zapper are
// host input and are not part of it.
type State struct {
	Ports [2]ControllerState `json:"ports"`
}

// ControllerState is the serial read position of one controller.
type ControllerState struct {
	Shift  uint8 `json:"shift"`
	Strobe bool  `json:"strobe"`
	Bit    uint8 `json:"bit"`
}

// State captures the shift registers.
func (is *InputState) State() State {
	var s State
	for i, c := range []*Controller{is.Controller1, is.Controller2} {
		s.Ports[i] = ControllerState{Shift: c.shiftRegister, Strobe: c.strobe, Bit: c.bitPosition}
	}
	return s
}

// SetState restores the shift registers.
func (is *InputState) SetState(s State) {
	for i, c := range []*Controller{is.Controller1, is.Controller2} {
		c.shiftRegister = s.Ports[i].Shift
		c.strobe = s.Ports[i].Strobe
		c.bitPosition = s.Ports[i].Bit
	}
}
