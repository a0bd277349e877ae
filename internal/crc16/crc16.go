/*
DESCRIPTION
  crc16.go provides the CRC-CCITT (poly 0x1021, non-reflected, init 0xFFFF,
  ones-complement of the remainder) used throughout the ETI/EDI/FIC wire
  formats: FIB CRC, MNSC/EOH CRC, MST/EOF CRC, and AF/PFT fragment CRCs
  (spec.md §4.F, §4.H, §4.I, §6). The table-driven construction mirrors
  container/mts/psi's CRC32 helper in the teacher repo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crc16 computes the CRC-CCITT checksum used across the ETI, EDI
// and FIC wire formats.
package crc16

// poly is the CRC-CCITT polynomial (x^16 + x^12 + x^5 + 1).
const poly = 0x1021

var table = makeTable(poly)

func makeTable(poly uint16) [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Checksum computes the DAB-profile CRC-CCITT over b: the register is
// seeded with 0xFFFF and the final remainder is complemented, per ETS 300
// 799 / EN 300 401 Annex A.
func Checksum(b []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, v := range b {
		crc = (crc << 8) ^ table[byte(crc>>8)^v]
	}
	return ^crc
}

// AppendChecksum appends the big-endian CRC of b to b and returns the
// result.
func AppendChecksum(b []byte) []byte {
	c := Checksum(b)
	return append(b, byte(c>>8), byte(c))
}
