/*
DESCRIPTION
  validate.go implements Ensemble.Validate(), the protection-descriptor to
  TPL/size mapping (EN 300 401 tables), and the reconfiguration-counter
  hash (spec.md §4.B).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ensemble

import (
	"fmt"
	"sort"

	"github.com/ausocean/dabmux/internal/crc16"
)

// MultiError collects multiple validation failures, mirroring device.MultiError
// in the teacher repo.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("ensemble: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// TotalCU is the ensemble's common-interleaved-frame capacity, in CU (§3).
const TotalCU = 864

// uepEntry describes one row of the (simplified) EN 300 401 Table 8 UEP
// table: the legal bitrate for this table index and the resulting
// protection level and CU size. Only the commonly-used classical-DAB-audio
// bitrates are represented; any UEP request at an unlisted bitrate is
// silently promoted to EEP per §4.B / §9 Open Question.
type uepEntry struct {
	bitrateKb int
	level     byte // 1..5 (UEP levels, reported for diagnostics only).
	sizeCU    int
}

// uepTable is indexed by table index 0..63. Unused indices are zero-valued
// and treated as "no such table index".
var uepTable = buildUEPTable()

func buildUEPTable() [64]uepEntry {
	var t [64]uepEntry
	// Representative subset of EN 300 401 Table 8, one entry per common
	// classical-DAB bitrate at its most frequently deployed protection
	// level, indexed in ascending bitrate order starting at table index 1
	// (index 0 is reserved/unused in the standard).
	rows := []uepEntry{
		{bitrateKb: 32, level: 5, sizeCU: 27},
		{bitrateKb: 48, level: 4, sizeCU: 39},
		{bitrateKb: 56, level: 4, sizeCU: 45},
		{bitrateKb: 64, level: 3, sizeCU: 56},
		{bitrateKb: 80, level: 3, sizeCU: 69},
		{bitrateKb: 96, level: 3, sizeCU: 83},
		{bitrateKb: 112, level: 2, sizeCU: 101},
		{bitrateKb: 128, level: 2, sizeCU: 115},
		{bitrateKb: 160, level: 2, sizeCU: 142},
		{bitrateKb: 192, level: 1, sizeCU: 172},
		{bitrateKb: 224, level: 1, sizeCU: 200},
		{bitrateKb: 256, level: 1, sizeCU: 230},
		{bitrateKb: 320, level: 1, sizeCU: 288},
		{bitrateKb: 384, level: 1, sizeCU: 345},
	}
	for i, r := range rows {
		t[i+1] = r
	}
	return t
}

// uepLookup finds the UEP table index matching bitrateKb, if any.
func uepLookup(bitrateKb int) (index byte, entry uepEntry, ok bool) {
	for i, e := range uepTable {
		if e.bitrateKb == bitrateKb {
			return byte(i), e, true
		}
	}
	return 0, uepEntry{}, false
}

// CUSize returns the sub-channel size in CU for sc's protection
// descriptor, silently promoting an unmatched UEP request to EEP-3A (the
// ODR-DabMux convention per §9 Open Question), and reports whether a
// promotion occurred.
func CUSize(sc *SubChannel) (size int, promoted bool) {
	p := &sc.Protect
	if p.UEP {
		if idx, e, ok := uepLookup(sc.BitrateKb); ok {
			p.UEPTableIndex = idx
			return e.sizeCU, false
		}
		// Promote: EEP profile A, level 3 is ODR-DabMux's conventional
		// fallback for an unmatched UEP request.
		p.UEP = false
		p.EEPProfile = EEPProfileA
		p.EEPLevel = 3
		promoted = true
	}
	return eepCUSize(sc.BitrateKb, p.EEPProfile, p.EEPLevel), promoted
}

// eepCUSize implements the EN 300 401 Table 9 EEP size formulas.
func eepCUSize(bitrateKb int, profile, level byte) int {
	switch profile {
	case EEPProfileB:
		factors := [5]int{0, 27, 21, 18, 15}
		if int(level) >= len(factors) {
			return 0
		}
		return (bitrateKb * factors[level] + 31) / 32
	default: // Profile A.
		factors := [5]int{0, 12, 8, 6, 4}
		if int(level) >= len(factors) {
			return 0
		}
		return (bitrateKb * factors[level] + 7) / 8
	}
}

// ToTPL maps sc's protection descriptor to the 6-bit Transport Protection
// Level used in the ETI STC word (§4.H, §4.B). CUSize must have been
// called first so that a UEP descriptor's table index has been resolved.
func ToTPL(p Protection) byte {
	if p.UEP {
		// UEP: bit 5 clear, bits 4..0 carry the table index.
		return p.UEPTableIndex & 0x1F
	}
	profileBit := byte(0)
	if p.EEPProfile == EEPProfileB {
		profileBit = 1
	}
	level := p.EEPLevel
	if level < 1 {
		level = 1
	}
	return 0x20 | profileBit<<4 | (level-1)&0x03
}

// Validate checks every structural invariant named in spec.md §3/§4.B and
// returns a MultiError of every violation found (not just the first), so a
// configuration author sees every problem in one pass.
func (e *Ensemble) Validate() error {
	var errs MultiError

	errs = append(errs, e.validateSubChannels()...)
	errs = append(errs, e.validateServices()...)
	errs = append(errs, e.validateComponents()...)
	errs = append(errs, e.validateLinkageSets()...)
	errs = append(errs, e.validateClusters()...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (e *Ensemble) validateSubChannels() []error {
	var errs []error
	seen := make(map[byte]bool)

	// Walk the sub-channels in slice order, which is declaration order
	// (§3 "start addresses are assigned in declaration order").
	offset := 0
	for i, sc := range e.SubChannels {
		if seen[sc.ID] {
			errs = append(errs, fmt.Errorf("sub-channel id %d duplicated (uid %q)", sc.ID, sc.UID))
		}
		seen[sc.ID] = true

		if sc.BitrateKb%8 != 0 {
			errs = append(errs, fmt.Errorf("sub-channel %q bitrate %d not a multiple of 8", sc.UID, sc.BitrateKb))
		}

		if sc.Protect.EEPProfile == EEPProfileB && sc.BitrateKb%32 != 0 {
			errs = append(errs, fmt.Errorf("sub-channel %q uses EEP-B but bitrate %d is not a multiple of 32", sc.UID, sc.BitrateKb))
		}

		if sc.Protect.UEP && sc.Type != DabAudio {
			errs = append(errs, fmt.Errorf("sub-channel %q requests UEP but is not classical DAB audio", sc.UID))
		}

		size, _ := CUSize(sc)
		sc.Size = size
		sc.Start = offset
		offset += size

		if i == len(e.SubChannels)-1 && offset > TotalCU {
			errs = append(errs, fmt.Errorf("ensemble capacity exceeded: %d CU used of %d", offset, TotalCU))
		}
	}
	return errs
}

func (e *Ensemble) validateServices() []error {
	var errs []error
	seen := make(map[string]bool)
	for _, s := range e.Services {
		if seen[s.UID] {
			errs = append(errs, fmt.Errorf("service uid %q duplicated", s.UID))
		}
		seen[s.UID] = true
	}
	return errs
}

func (e *Ensemble) validateComponents() []error {
	var errs []error
	services := make(map[string]bool)
	for _, s := range e.Services {
		services[s.UID] = true
	}
	subchans := make(map[string]*SubChannel)
	for _, sc := range e.SubChannels {
		subchans[sc.UID] = sc
	}

	scidsPerService := make(map[string]map[byte]bool)
	for _, c := range e.Components {
		if !services[c.ServiceUID] {
			errs = append(errs, fmt.Errorf("component %q references unknown service %q", c.UID, c.ServiceUID))
		}
		sc, ok := subchans[c.SubChanUID]
		if !ok {
			errs = append(errs, fmt.Errorf("component %q references unknown sub-channel %q", c.UID, c.SubChanUID))
		} else if c.IsPacket && sc.Type != Packet {
			errs = append(errs, fmt.Errorf("component %q is packet-mode but sub-channel %q is not", c.UID, c.SubChanUID))
		}

		if _, ok := scidsPerService[c.ServiceUID]; !ok {
			scidsPerService[c.ServiceUID] = make(map[byte]bool)
		}
		if scidsPerService[c.ServiceUID][c.SCIdS] {
			errs = append(errs, fmt.Errorf("component %q duplicates SCIdS %d within service %q", c.UID, c.SCIdS, c.ServiceUID))
		}
		scidsPerService[c.ServiceUID][c.SCIdS] = true
	}
	return errs
}

func (e *Ensemble) validateLinkageSets() []error {
	var errs []error
	services := make(map[string]bool)
	for _, s := range e.Services {
		services[s.UID] = true
	}
	for _, ls := range e.LinkageSets {
		if !services[ls.KeyServiceUID] {
			errs = append(errs, fmt.Errorf("linkage set %d references unknown key service %q", ls.LSN, ls.KeyServiceUID))
		}
	}
	return errs
}

func (e *Ensemble) validateClusters() []error {
	var errs []error
	for _, c := range e.Clusters {
		if c.ClusterID == 0 {
			errs = append(errs, fmt.Errorf("announcement cluster %q has illegal cluster id 0", c.UID))
			continue
		}
		if c.ClusterID == AlarmClusterID {
			e.Alarm = true
		} else if c.ClusterID > 254 {
			errs = append(errs, fmt.Errorf("announcement cluster %q has out-of-range id %d", c.UID, c.ClusterID))
		}
	}
	return errs
}

// ReconfigCounterValue returns e.ReconfigCounter, or, when it is set to
// ReconfigAuto, a CRC16 over a canonical concatenation of the ensemble's
// identity fields, reduced modulo 1024 (§4.B).
func ReconfigCounterValue(e *Ensemble) int {
	if e.ReconfigCounter != ReconfigAuto {
		return e.ReconfigCounter
	}

	var b []byte
	putU16 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }

	putU16(e.EId)
	b = append(b, e.ECC)

	services := append([]*Service(nil), e.Services...)
	sort.Slice(services, func(i, j int) bool { return services[i].UID < services[j].UID })
	for _, s := range services {
		putU16(uint16(s.SId))
		b = append(b, s.ECC)
	}

	components := append([]*Component(nil), e.Components...)
	sort.Slice(components, func(i, j int) bool { return components[i].UID < components[j].UID })
	for _, c := range components {
		b = append(b, byte(len(c.ServiceUID)))
		b = append(b, c.SubChanUID...)
		b = append(b, c.ComponentType, c.SCIdS)
	}

	subchans := append([]*SubChannel(nil), e.SubChannels...)
	sort.Slice(subchans, func(i, j int) bool { return subchans[i].ID < subchans[j].ID })
	for _, sc := range subchans {
		b = append(b, sc.ID)
		putU16(uint16(sc.Start))
		putU16(uint16(sc.BitrateKb))
		b = append(b, byte(sc.Type), ToTPL(sc.Protect))
	}

	return int(crc16.Checksum(b)) % 1024
}
