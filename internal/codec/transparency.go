package codec

// Graphics control payload layout: packed flags, delay (2 bytes),
// transparent color index.
const (
	gcePayloadLen       = 4
	gceTransparentFlag  = 0x01
	gceTransparentIndex = 3
)

// Transparency is the transparent palette index carried from one graphics
// control extension to every later frame until another one changes it.
// The zero value has no transparent index.
type Transparency struct {
	index uint8
	set   bool
}

// SetFromExtension updates the state from a graphics control payload (the
// first data block, without its length byte). Payloads too short to hold
// the index leave the state as it was.
func (t *Transparency) SetFromExtension(block []byte) {
	if len(block) < gcePayloadLen {
		return
	}
	if block[0]&gceTransparentFlag != 0 {
		t.index = block[gceTransparentIndex]
		t.set = true
		return
	}
	t.index = 0
	t.set = false
}

// Index returns the transparent index and whether one is active.
func (t Transparency) Index() (uint8, bool) {
	return t.index, t.set
}
