/*
DESCRIPTION
  watermark.go builds the 128-bit watermark pattern FIG 0/1 advances
  through to choose its sub-channel iteration direction each loop
  (spec.md §4.F "A watermarked FIG 0/1 embeds a software fingerprint by
  toggling the iteration direction according to a 128-bit pattern
  advanced once per complete loop"), grounded directly on
  original_source's FIG0_1 constructor: a 0x5555 sync prefix followed by
  each data bit Manchester-padded with a constant 1 bit.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

// buildWatermark encodes ident into a bit pattern: a 0x55,0x55 sync
// prefix, then each bit of ident doubled with a trailing 1 bit, matching
// the original fingerprint construction bit-for-bit in shape.
func buildWatermark(ident string) (pattern []byte, nbits int) {
	pattern = make([]byte, 16)
	pattern[0] = 0x55
	pattern[1] = 0x55
	nbits = 16

	setBit := func(pos int, v byte) {
		pattern[pos>>3] |= v << (7 - uint(pos&0x07))
	}

	pos := nbits
	for i := 0; i < len(ident); i++ {
		for bit := 0; bit < 8; bit++ {
			srcBit := (ident[i] >> (7 - uint(bit))) & 1
			if pos>>3 >= len(pattern) {
				return pattern, pos
			}
			setBit(pos, srcBit)
			pos++
			setBit(pos, 1)
			pos++
		}
	}
	return pattern, pos
}

// watermarkBit reads the watermark bit at logical position pos (mod
// nbits).
func watermarkBit(pattern []byte, nbits, pos int) byte {
	pos %= nbits
	return (pattern[pos>>3] >> (7 - uint(pos&0x07))) & 1
}
