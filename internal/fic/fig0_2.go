/*
DESCRIPTION
  fig0_2.go implements FIG 0/2, service organisation and component
  listing: one entry per service (16-bit SId for programme services,
  32-bit for data, selected by the FIG's PD bit) followed by one 2-byte
  component descriptor per component belonging to it. Programme and data
  services cannot share a FIG 0/2 instance (the PD bit is per-instance),
  so they are emitted as separate instances, mirroring
  original_source/src/fig/FIG0_2.cpp's m_inserting_audio_not_data split.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_2 emits service organisation entries.
type FIG0_2 struct {
	e *ensemble.Ensemble

	initialised   bool
	audioServices []*ensemble.Service
	dataServices  []*ensemble.Service
	insertingAudio bool
	pos           int
}

// NewFIG0_2 returns a FIG 0/2 generator.
func NewFIG0_2(e *ensemble.Ensemble) *FIG0_2 { return &FIG0_2{e: e} }

func (f *FIG0_2) FIGType() int      { return 0 }
func (f *FIG0_2) FIGExtension() int { return 2 }
func (f *FIG0_2) Rate() Rate        { return RateA }

func (f *FIG0_2) componentsFor(svc *ensemble.Service) []*ensemble.Component {
	var out []*ensemble.Component
	for _, c := range f.e.Components {
		if c.ServiceUID == svc.UID {
			out = append(out, c)
		}
	}
	return out
}

func (f *FIG0_2) subChannelByUID(uid string) *ensemble.SubChannel {
	for _, sc := range f.e.SubChannels {
		if sc.UID == uid {
			return sc
		}
	}
	return nil
}

func (f *FIG0_2) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.audioServices = f.audioServices[:0]
		f.dataServices = f.dataServices[:0]
		for _, s := range f.e.Services {
			if s.SId > 0xFFFF {
				f.dataServices = append(f.dataServices, s)
			} else {
				f.audioServices = append(f.audioServices, s)
			}
		}
		f.insertingAudio = true
		f.pos = 0
	}

	list := f.audioServices
	pd := false
	if !f.insertingAudio {
		list = f.dataServices
		pd = true
	}

	if maxLen < 4 {
		return 0, false
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(list) {
		svc := list[f.pos]
		comps := f.componentsFor(svc)
		sidWidth := 2
		if pd {
			sidWidth = 4
		}
		entrySize := sidWidth + 1 + 2*len(comps)

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 2, pd, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		entry := buf[written:]
		idx := 0
		if pd {
			entry[0] = byte(svc.SId >> 24)
			entry[1] = byte(svc.SId >> 16)
			entry[2] = byte(svc.SId >> 8)
			entry[3] = byte(svc.SId)
			idx = 4
		} else {
			entry[0] = byte(svc.SId >> 8)
			entry[1] = byte(svc.SId)
			idx = 2
		}
		entry[idx] = byte(len(comps)&0x0F) | 0<<4 /* CAId */ | 0<<7 /* Local_flag */
		idx++

		for _, c := range comps {
			sc := f.subChannelByUID(c.SubChanUID)
			if sc == nil {
				continue
			}
			if c.IsPacket {
				entry[idx] = byte(c.PacketID>>6) & 0x3F
				entry[idx+1] = (byte(c.PacketID) & 0x3F) << 2
			} else {
				entry[idx] = c.ComponentType & 0x3F
				entry[idx+1] = sc.ID & 0x3F
			}
			idx += 2
		}

		written += entrySize
		remaining -= entrySize
		length += entrySize
		setFIG0Length(buf, length)

		f.pos++
	}

	listExhausted := f.pos >= len(list)
	complete := false
	if listExhausted {
		if f.insertingAudio {
			f.insertingAudio = false
			f.pos = 0
			complete = len(f.dataServices) == 0
		} else {
			complete = true
		}
	}

	if complete {
		f.initialised = false
	}

	return written, complete
}
