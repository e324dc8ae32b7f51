package tfa

const (
	// PacketBits is the number of bits in one packet repetition.
	PacketBits = 36

	// PacketBytes is the storage size of one candidate.
	PacketBytes = 5

	// BurstCapacity is the sensor's fixed repeat count per transmission.
	BurstCapacity = 7

	// MinRepetitions is the minimum number of complete candidates a burst
	// must carry to be worth resolving.
	MinRepetitions = 3

	// SensorType is the type tag the 30.3215.02 places in bits 0-7.
	SensorType = 0x90
)

// Candidate is one repetition's raw 36-bit pattern in transmission order:
// bit 0 (first sent) is the most significant bit of byte 0. Multi-bit
// fields are sent MSB first.
//
// Layout:
//
//	bits 0-7   sensor type tag (0x90)
//	bits 8-11  random device id
//	bit  12    battery low
//	bit  13    sync button pressed
//	bits 14-15 channel selector (0-based)
//	bits 16-27 temperature, two's complement, tenths of degC
//	bits 28-35 relative humidity, percent
type Candidate [PacketBytes]byte

func (c *Candidate) setBit(pos int, v bool) {
	mask := byte(1) << (7 - pos&7)
	if v {
		c[pos>>3] |= mask
	} else {
		c[pos>>3] &^= mask
	}
}

func (c Candidate) typeTag() uint8 {
	return c[0]
}

func (c Candidate) deviceID() uint8 {
	return c[1] >> 4
}

func (c Candidate) batteryLow() bool {
	return c[1]&0x08 != 0
}

func (c Candidate) syncPressed() bool {
	return c[1]&0x04 != 0
}

func (c Candidate) channel() uint8 {
	return c[1] & 0x03
}

// tempRaw returns the 12-bit temperature field sign-extended to int.
func (c Candidate) tempRaw() int {
	raw := int(c[2])<<4 | int(c[3])>>4
	if raw&0x800 != 0 {
		raw |= ^0xFFF
	}
	return raw
}

func (c Candidate) humidity() uint8 {
	return (c[3]&0x0F)<<4 | c[4]>>4
}

// Encode packs a reading back into the wire bit layout. The inverse of
// Parse; used by the synthetic pulse generator and the tests.
func Encode(r Reading) Candidate {
	var c Candidate
	c[0] = r.Type
	c[1] = r.DeviceID << 4
	if r.BatteryLow {
		c[1] |= 0x08
	}
	if r.Sync {
		c[1] |= 0x04
	}
	if r.Channel >= 1 {
		c[1] |= uint8(r.Channel-1) & 0x03
	}
	raw := int(tenths(r.TempC)) & 0xFFF
	c[2] = byte(raw >> 4)
	c[3] = byte(raw&0x0F)<<4 | r.Humidity>>4
	c[4] = r.Humidity << 4
	return c
}

// tenths rounds a temperature in degC to the wire resolution of 0.1 degC.
func tenths(tempC float64) int16 {
	if tempC < 0 {
		return int16(tempC*10 - 0.5)
	}
	return int16(tempC*10 + 0.5)
}
