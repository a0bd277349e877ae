/*
DESCRIPTION
  header.go packs the two header bytes shared by every FIG type 0/x and
  type 1/x instance: Length(5)+FIGtypeNumber(3), then either
  Extension(5)+PD(1)+OE(1)+CN(1) for type 0, or Charset(4)+rfu(1)+Extension(3)
  for type 1 (spec.md §4.F; byte layout grounded on ODR-DabMux's
  FIGtype0/FIGtype1 packed structs).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

// writeFIG0Header writes the 2-byte FIG type 0 header: byte0 =
// FIGtypeNumber(3, high bits)|Length(5, low bits), byte1 =
// CN(1)|OE(1)|PD(1)|Extension(5, low bits) — the bit order a packed C
// struct with Length/Extension declared first puts them in the least
// significant bits. length counts the bytes after byte0 (the extension
// byte plus the data); extension selects the FIG 0/x variant.
func writeFIG0Header(buf []byte, length int, extension byte, pd, oe, cn bool) {
	buf[0] = byte(length & 0x1F) // FIGtypeNumber=0.
	buf[1] = boolBit(cn)<<7 | boolBit(oe)<<6 | boolBit(pd)<<5 | extension&0x1F
}

// setFIG0Length rewrites only the length field of an already-written FIG
// 0/x header, used when a generator appends entries incrementally.
func setFIG0Length(buf []byte, length int) {
	buf[0] = byte(length & 0x1F)
}

// writeFIG1Header writes the 2-byte FIG type 1 header, following the same
// bit convention as writeFIG0Header: byte0 = "1"(3 high bits)|Length(5),
// byte1 = Charset(4, high bits)|rfu(1)|Extension(3, low bits). The exact
// charset/extension split for FIG 1 was not present in the retrieved
// original source (only FIG 0/x headers were), so this mirrors the FIG 0
// convention rather than a confirmed byte-for-byte layout.
func writeFIG1Header(buf []byte, length int, extension, charset byte) {
	buf[0] = byte(length&0x1F) | 0x01<<5
	buf[1] = charset&0x0F<<4 | extension&0x07
}

// writeFIG2Header writes the 2-byte FIG type 2 header, following the same
// bit convention as writeFIG0Header: byte0 = "2"(3 high bits)|Length(5),
// byte1 = Toggle(1)|Rfu(1)|PD(1)|Extension(5, low bits). Not present in
// the retrieved original source; mirrors the FIG 0/1 convention.
func writeFIG2Header(buf []byte, length int, extension byte, pd bool) {
	buf[0] = byte(length&0x1F) | 0x02<<5
	buf[1] = boolBit(pd)<<5 | extension&0x1F
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
