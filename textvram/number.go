package textvram

// FormatNumber returns n in decimal.
func FormatNumber(n uint32) []byte {
	d := uint64(1)
	for uint64(n/10) >= d {
		d *= 10
	}
	return digits(uint64(n), d, nil)
}

// FormatNumberWidth returns n in decimal right-aligned in e columns, padded
// with spaces. When n needs more than e digits only the low e digits are kept.
// A zero width yields nothing.
func FormatNumberWidth(n uint32, e byte) []byte {
	if e == 0 {
		return nil
	}
	v := uint64(n)
	n1 := v / 10
	d := uint64(1)
	e--
	for e > 0 && n1 >= d {
		d *= 10
		e--
	}
	if e == 0 && n1 >= d {
		v %= d * 10
	}
	out := make([]byte, 0, int(e)+10)
	for ; e > 0; e-- {
		out = append(out, ' ')
	}
	return digits(v, d, out)
}

func digits(v, d uint64, out []byte) []byte {
	for d != 0 {
		out = append(out, byte('0'+v/d))
		v %= d
		d /= 10
	}
	return out
}
