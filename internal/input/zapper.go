package input

// Zapper port bits, as seen through $4017.
const (
	zapperLightNotSensed = 0x08
	zapperTrigger        = 0x10
)

// LightSensor reports whether the picture is bright at a screen position.
type LightSensor interface {
	PixelBright(x, y int) bool
}

// Zapper is the NES light gun, plugged into port 2.
type Zapper struct {
	x, y   int
	aimed  bool
	fired  bool
	sensor LightSensor
}

// NewZapper creates a zapper that samples light from sensor.
func NewZapper(sensor LightSensor) *Zapper {
	return &Zapper{sensor: sensor}
}

// Move points the gun at screen position (x, y).
func (z *Zapper) Move(x, y int) {
	z.x = x
	z.y = y
	z.aimed = true
}

// SetTrigger presses or releases the trigger.
func (z *Zapper) SetTrigger(pressed bool) {
	z.fired = pressed
}

// Position returns where the gun points and whether it has been aimed.
func (z *Zapper) Position() (x, y int, aimed bool) {
	return z.x, z.y, z.aimed
}

// Read returns the zapper's contribution to $4017.
func (z *Zapper) Read() uint8 {
	var value uint8 = zapperLightNotSensed
	if z.aimed && z.sensor != nil && z.sensor.PixelBright(z.x, z.y) {
		value = 0
	}
	if z.fired {
		value |= zapperTrigger
	}
	return value
}

// Reset releases the trigger and forgets the aim.
func (z *Zapper) Reset() {
	z.x, z.y = 0, 0
	z.aimed = false
	z.fired = false
}
