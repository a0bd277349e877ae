/*
DESCRIPTION
  pft.go implements PFT (Protection, Fragmentation and Transport,
  ETSI TS 102 821 Annex B) reassembly: PF fragments sharing a pseq are
  buffered until either every fragment has arrived or the Reed-Solomon
  erasure code can recover the missing ones, with a maximum-age eviction
  policy so a stalled pseq cannot hold the reassembler open forever
  (spec.md §4.D).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ediinput

import (
	"encoding/binary"
	"fmt"

	"github.com/ausocean/dabmux/internal/crc16"
	"github.com/ausocean/dabmux/internal/edi/fec"
)

// pfFragment is one parsed PF fragment.
type pfFragment struct {
	pseq    uint16
	findex  int // 0-based fragment index.
	fcount  int // total fragment count for this pseq.
	fec     bool
	rsk     int    // Number of parity fragments (RS k parameter), when fec is set.
	afLen   uint16 // Original (unpadded) AF packet length, in bytes.
	payload []byte
}

// parsePF parses one PF packet's fields. Layout (ETSI TS 102 821 Annex B):
// magic "PF", Pseq(16), Findex(24), Fcount(24), flags(8, top bit = FEC),
// RS_K(8, if fec), 16-bit original AF length, payload, trailing CRC16
// (spec.md §4.D point 2: "a 16-bit AF length and a CRC").
func parsePF(buf []byte) (pfFragment, error) {
	const minLen = 2 + 2 + 3 + 3 + 1 + 2 + 2
	if len(buf) < minLen {
		return pfFragment{}, fmt.Errorf("ediinput: PF packet too short (%d bytes)", len(buf))
	}
	if string(buf[0:2]) != "PF" {
		return pfFragment{}, fmt.Errorf("ediinput: missing PF magic")
	}

	want := binary.BigEndian.Uint16(buf[len(buf)-2:])
	got := crc16.Checksum(buf[:len(buf)-2])
	if want != got {
		return pfFragment{}, fmt.Errorf("ediinput: PF fragment CRC mismatch (want %04x, got %04x)", want, got)
	}
	body := buf[:len(buf)-2]

	f := pfFragment{}
	f.pseq = binary.BigEndian.Uint16(body[2:4])
	f.findex = int(body[4])<<16 | int(body[5])<<8 | int(body[6])
	f.fcount = int(body[7])<<16 | int(body[8])<<8 | int(body[9])

	flags := body[10]
	f.fec = flags&0x80 != 0
	offset := 11
	if f.fec {
		if len(body) < offset+1 {
			return pfFragment{}, fmt.Errorf("ediinput: PF packet truncated before RS_K")
		}
		f.rsk = int(body[offset])
		offset++
	}

	if len(body) < offset+2 {
		return pfFragment{}, fmt.Errorf("ediinput: PF packet truncated before AF length")
	}
	f.afLen = binary.BigEndian.Uint16(body[offset : offset+2])
	offset += 2

	f.payload = append([]byte(nil), body[offset:]...)
	return f, nil
}

// pftBuffer reassembles one pseq's worth of fragments.
type pftBuffer struct {
	pseq      uint16
	fcount    int
	fec       bool
	rsk       int
	afLen     int
	fragments [][]byte
	present   []bool
	have      int
	age       int // AF packets observed since this pseq's first fragment.
}

// Reassembler accumulates PF fragments across pseqs and emits complete AF
// packets, dropping pseqs that exceed maxDelay AF-packet-equivalents of
// age without completing.
type Reassembler struct {
	maxDelay int
	buffers  map[uint16]*pftBuffer

	completed int
	lost      int
	recovered int
}

// NewReassembler returns a Reassembler with the given maximum reassembly
// age, in AF-packet-equivalents (spec.md §4.D "max_delay measured in AF
// packets").
func NewReassembler(maxDelay int) *Reassembler {
	if maxDelay <= 0 {
		maxDelay = 10
	}
	return &Reassembler{maxDelay: maxDelay, buffers: make(map[uint16]*pftBuffer)}
}

// PushFragment ingests one raw PF packet. It returns the reassembled AF
// packet bytes and true once pseq is complete (directly, or via
// Reed-Solomon recovery); otherwise it returns (nil, false).
//
// Out-of-order arrival within the reassembly window is tolerated;
// resubmitting an already-seen fragment is idempotent.
func (r *Reassembler) PushFragment(raw []byte) ([]byte, bool, error) {
	f, err := parsePF(raw)
	if err != nil {
		return nil, false, err
	}

	buf, ok := r.buffers[f.pseq]
	if !ok {
		// The first fragment of an unseen pseq marks a new AF packet.
		r.age()
		buf = &pftBuffer{
			pseq:      f.pseq,
			fcount:    f.fcount,
			fec:       f.fec,
			rsk:       f.rsk,
			afLen:     int(f.afLen),
			fragments: make([][]byte, f.fcount),
			present:   make([]bool, f.fcount),
		}
		r.buffers[f.pseq] = buf
	}

	if f.findex < 0 || f.findex >= buf.fcount {
		return nil, false, fmt.Errorf("ediinput: fragment index %d out of range for fcount %d", f.findex, buf.fcount)
	}
	if !buf.present[f.findex] {
		buf.present[f.findex] = true
		buf.fragments[f.findex] = f.payload
		buf.have++
	}

	dataShards := buf.fcount
	if buf.fec && buf.rsk > 0 {
		dataShards = buf.fcount - buf.rsk
	}

	if buf.have >= buf.fcount {
		delete(r.buffers, f.pseq)
		r.completed++
		return assembleAF(buf.fragments, dataShards, buf.afLen), true, nil
	}

	if buf.fec && buf.rsk > 0 && buf.have >= dataShards {
		code, err := fec.New(dataShards, buf.rsk)
		if err == nil {
			if err := code.Reconstruct(buf.fragments, buf.present); err == nil {
				delete(r.buffers, f.pseq)
				r.completed++
				r.recovered++
				return assembleAF(buf.fragments, dataShards, buf.afLen), true, nil
			}
		}
	}

	return nil, false, nil
}

// age advances every buffered pseq's age by one AF packet and evicts
// anything that has exceeded maxDelay, counting it as lost.
func (r *Reassembler) age() {
	for pseq, buf := range r.buffers {
		buf.age++
		if buf.age > r.maxDelay {
			delete(r.buffers, pseq)
			r.lost++
		}
	}
}

// Stats reports cumulative reassembly outcomes.
func (r *Reassembler) Stats() (completed, recovered, lost int) {
	return r.completed, r.recovered, r.lost
}

// assembleAF concatenates the first dataShards fragments (the parity
// shards, if any, exist only to aid recovery and are not part of the AF
// packet payload) and trims the result to afLen, discarding the zero
// padding the last data shard may carry.
func assembleAF(fragments [][]byte, dataShards, afLen int) []byte {
	var out []byte
	for i := 0; i < dataShards && i < len(fragments); i++ {
		out = append(out, fragments[i]...)
	}
	if afLen > 0 && afLen <= len(out) {
		out = out[:afLen]
	}
	return out
}

// FragmentPF splits an AF packet into PF fragments of at most chunkLen
// bytes each, optionally protected by a Reed-Solomon code with fec parity
// fragments, for the EDI emitter side of PFT (spec.md §4.I). Used by
// package edi; kept here alongside the reassembly logic it mirrors.
func FragmentPF(pseq uint16, af []byte, chunkLen, fecParity int) ([][]byte, error) {
	if chunkLen <= 0 {
		return nil, fmt.Errorf("ediinput: chunk length must be positive")
	}
	dataShards := (len(af) + chunkLen - 1) / chunkLen
	if dataShards == 0 {
		dataShards = 1
	}

	shards := make([][]byte, dataShards)
	for i := 0; i < dataShards; i++ {
		start := i * chunkLen
		end := start + chunkLen
		if end > len(af) {
			end = len(af)
		}
		s := make([]byte, chunkLen)
		copy(s, af[start:end])
		shards[i] = s
	}

	total := dataShards
	var code *fec.Code
	if fecParity > 0 {
		var err error
		code, err = fec.New(dataShards, fecParity)
		if err != nil {
			return nil, err
		}
		parity := make([][]byte, fecParity)
		all := append(append([][]byte{}, shards...), parity...)
		if err := code.Encode(all); err != nil {
			return nil, err
		}
		shards = all
		total = dataShards + fecParity
	}

	out := make([][]byte, total)
	for i, s := range shards {
		out[i] = encodePF(pseq, i, total, fecParity > 0, fecParity, uint16(len(af)), s)
	}
	return out, nil
}

// encodePF builds one PF fragment, including the original AF length and
// the trailing CRC16-CCITT that protects its header+payload at the wire
// (spec.md §4.D point 2, §4.I "per-fragment CRC16").
func encodePF(pseq uint16, findex, fcount int, isFEC bool, rsk int, afLen uint16, payload []byte) []byte {
	buf := make([]byte, 0, 20+len(payload))
	buf = append(buf, 'P', 'F')
	buf = binary.BigEndian.AppendUint16(buf, pseq)
	buf = append(buf, byte(findex>>16), byte(findex>>8), byte(findex))
	buf = append(buf, byte(fcount>>16), byte(fcount>>8), byte(fcount))
	flags := byte(0)
	if isFEC {
		flags |= 0x80
	}
	buf = append(buf, flags)
	if isFEC {
		buf = append(buf, byte(rsk))
	}
	buf = binary.BigEndian.AppendUint16(buf, afLen)
	buf = append(buf, payload...)
	return binary.BigEndian.AppendUint16(buf, crc16.Checksum(buf))
}
