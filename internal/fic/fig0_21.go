/*
DESCRIPTION
  fig0_21.go implements FIG 0/21, frequency information: alternative
  frequencies on which the ensemble, or a linked FM/DRM/AMSS broadcast,
  can also be received (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_21.cpp's FIGtype0_21_header/
  FIGtype0_21_fi_list_header/FIGtype0_21_fi_dab_entry layouts and its
  per-range-modulation frequency packing).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// Per-loop caps on how many frequencies are packed into a single FI list,
// matching FIG0_21::fill's num_inserted bounds.
const (
	maxDABFreqsPerList  = 2
	maxFMFreqsPerList   = 7
	maxDRMFreqsPerList  = 3
	maxAMSSFreqsPerList = 3
)

// FIG0_21 emits alternative-frequency lists.
type FIG0_21 struct {
	e           *ensemble.Ensemble
	initialised bool
	fiPos       int
	freqPos     int
}

// NewFIG0_21 returns a FIG 0/21 generator.
func NewFIG0_21(e *ensemble.Ensemble) *FIG0_21 { return &FIG0_21{e: e} }

func (f *FIG0_21) FIGType() int      { return 0 }
func (f *FIG0_21) FIGExtension() int { return 21 }
func (f *FIG0_21) Rate() Rate        { return RateE }

func dabFreqTo16kHz(f ensemble.DABFrequency) uint32 { return uint32(f.FreqKHz16) }

func controlField(f ensemble.DABFrequency) byte {
	v := byte(0)
	if f.Adjacent {
		v |= 0x01
	}
	if f.ModeI {
		v |= 0x02
	}
	return v
}

func numFrequencies(fi *ensemble.FrequencyInfo) int {
	switch fi.RM {
	case ensemble.RMDab:
		return len(fi.DABFreqs)
	case ensemble.RMFMRDS:
		return len(fi.FMFreqs100kHz)
	default:
		return len(fi.FreqsKHz)
	}
}

func (f *FIG0_21) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.fiPos = 0
		f.freqPos = 0
	}

	remaining := maxLen
	written := 0
	var fig0Start int
	fig0Open := false
	length := 0
	lastOE := false

	for f.fiPos < len(f.e.Frequencies) {
		fi := f.e.Frequencies[f.fiPos]

		if fig0Open && lastOE != fi.OE {
			fig0Open = false
		}

		entrySize := 2 // FIGtype0_21_header.
		listHeaderSize := 3
		switch fi.RM {
		case ensemble.RMDab, ensemble.RMFMRDS:
			entrySize += listHeaderSize
		case ensemble.RMDRM, ensemble.RMAMSS:
			entrySize += listHeaderSize + 1 // extra id byte.
		}

		if !fig0Open {
			if remaining < 2+entrySize {
				return written, false
			}
			cn := byte(0)
			if f.freqPos != 0 {
				cn = 1
			}
			writeFIG0Header(buf, 1, 21, false, fi.OE, cn != 0)
			written += 2
			remaining -= 2
			fig0Open = true
			fig0Start = written - 2
			length = 1
			lastOE = fi.OE
		} else if remaining < entrySize {
			return written, false
		}

		e := buf[written:]
		idx := 0
		e[0] = 0 // rfaHigh (region id, unsupported).
		lengthFIIdx := 1
		idx = 2

		// FI list header.
		switch fi.RM {
		case ensemble.RMDab:
			e[idx] = byte(fi.ForeignEId >> 8)
			e[idx+1] = byte(fi.ForeignEId)
		case ensemble.RMFMRDS:
			e[idx] = byte(fi.PICode >> 8)
			e[idx+1] = byte(fi.PICode)
		case ensemble.RMDRM, ensemble.RMAMSS:
			e[idx] = byte(fi.ServiceID24 >> 16)
			e[idx+1] = byte(fi.ServiceID24 >> 8)
		}
		lenFreqIdx := idx + 2
		e[lenFreqIdx] = boolBit(fi.Continuity)<<3 | byte(fi.RM)&0x0F
		idx = lenFreqIdx + 1
		if fi.RM == ensemble.RMDRM || fi.RM == ensemble.RMAMSS {
			e[idx] = byte(fi.ServiceID24)
			idx++
		}

		lenFI := byte(listHeaderSize)
		lenFreqList := byte(0)

		switch fi.RM {
		case ensemble.RMDab:
			for n := 0; n < maxDABFreqsPerList && f.freqPos < len(fi.DABFreqs); n++ {
				if remaining < idx+3 {
					break
				}
				freq := fi.DABFreqs[f.freqPos]
				v := dabFreqTo16kHz(freq)
				e[idx] = controlField(freq)<<3 | byte(v>>16)&0x07
				e[idx+1] = byte(v >> 8)
				e[idx+2] = byte(v)
				idx += 3
				lenFI += 3
				lenFreqList += 3
				f.freqPos++
			}
		case ensemble.RMFMRDS:
			for n := 0; n < maxFMFreqsPerList && f.freqPos < len(fi.FMFreqs100kHz); n++ {
				if remaining < idx+1 {
					break
				}
				e[idx] = byte(fi.FMFreqs100kHz[f.freqPos])
				idx++
				lenFI++
				lenFreqList++
				f.freqPos++
			}
		case ensemble.RMDRM:
			for n := 0; n < maxDRMFreqsPerList && f.freqPos < len(fi.FreqsKHz); n++ {
				if remaining < idx+2 {
					break
				}
				khz := fi.FreqsKHz[f.freqPos]
				e[idx] = byte(khz >> 8)
				e[idx+1] = byte(khz)
				idx += 2
				lenFI += 2
				lenFreqList += 2
				f.freqPos++
			}
		case ensemble.RMAMSS:
			for n := 0; n < maxAMSSFreqsPerList && f.freqPos < len(fi.FreqsKHz); n++ {
				if remaining < idx+2 {
					break
				}
				khz := fi.FreqsKHz[f.freqPos]
				e[idx] = byte(khz >> 8)
				e[idx+1] = byte(khz)
				idx += 2
				lenFI += 2
				lenFreqList += 2
				f.freqPos++
			}
		}

		e[lengthFIIdx] = lenFI & 0x1F
		e[lenFreqIdx] = e[lenFreqIdx]&0xF8 | lenFreqList&0x07

		written += idx
		remaining -= idx
		length += idx
		setFIG0Length(buf[fig0Start:], length)

		if f.freqPos >= numFrequencies(fi) {
			f.fiPos++
			f.freqPos = 0
		}
	}

	complete := f.fiPos >= len(f.e.Frequencies)
	if complete {
		f.initialised = false
	}
	return written, complete
}
