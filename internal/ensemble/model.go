/*
DESCRIPTION
  model.go defines the DAB ensemble data model: the ensemble itself plus its
  owned sub-channels, services, components, linkage sets, announcement
  clusters, frequency information and other-ensemble service records
  (spec.md §3). Entities are arranged as an arena of slices referencing each
  other by uid string, resolved to integer indices at Validate() time rather
  than via pointer cycles (§9 Design Notes: "Cyclic references").

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ensemble implements the DAB ensemble data model together with its
// validation and slot-allocation invariants.
package ensemble

// Mode is the DAB transmission mode, which determines FIC length.
type Mode int

// Transmission modes.
const (
	ModeI Mode = iota + 1
	ModeII
	ModeIII
	ModeIV
)

// FICL returns the FIC length in bytes for the transmission mode: 24 bytes
// for modes I/II/IV, 32 bytes for mode III (§3, §4.F).
func (m Mode) FICL() int {
	if m == ModeIII {
		return 32
	}
	return 24
}

// FIBCount is the number of FIBs the FIC carousel must produce per 24ms
// frame for this mode (§4.F).
func (m Mode) FIBCount() int {
	if m == ModeIII {
		return 4
	}
	return 3
}

// SubChannelType enumerates the four kinds of sub-channel payload (§3).
type SubChannelType int

// Sub-channel types.
const (
	DabAudio SubChannelType = iota
	DabPlusAudio
	DataDmb
	Packet
)

// ReconfigAuto requests that Ensemble.ReconfigCounter() compute a hash-based
// counter instead of using a fixed value (§4.B).
const ReconfigAuto = -1

// Ensemble is the root entity: created at startup from an externally
// validated configuration, read-mostly thereafter, with protection, label
// and announcement-flag fields mutable via the remote-control surface.
type Ensemble struct {
	ECC              byte   // Extended country code, 8 bits.
	EId              uint16 // Ensemble identifier, 16 bits.
	InternationalTab byte   // International table id.
	LTO              int8   // Local time offset in signed half-hours, or LTOAuto.
	Mode             Mode
	Alarm            bool
	ReconfigCounter  int // 0..1023, or ReconfigAuto for hash-derived.

	LongLabel     string
	ShortLabelSet uint16 // Bitmask selecting <=8 visible chars of LongLabel.
	ExtendedLabel *ExtendedLabel

	SubChannels  []*SubChannel
	Services     []*Service
	Components   []*Component
	Clusters     []*AnnouncementCluster
	LinkageSets  []*LinkageSet
	Frequencies  []*FrequencyInfo
	OtherService []*OtherEnsembleService
}

// LTOAuto requests that the local time offset be derived from the system
// timezone rather than fixed.
const LTOAuto = -128

// ExtendedLabel is an optional Unicode label with text-control attributes
// carried in FIG 2/x (§3, §4.F).
type ExtendedLabel struct {
	Text        string
	Charset     byte // FIG 2/x charset indicator.
	Segments    []TextControl
}

// TextControl marks a span of an extended label with a text-control
// attribute (e.g. bold/emphasis), as used by FIG 2/x.
type TextControl struct {
	Start, End int
	Attribute  byte
}

// Protection is a tagged variant: either UEP (classical DAB audio only) or
// EEP (profile A or B, level 1..4) (§3).
type Protection struct {
	UEP bool

	// UEP fields.
	UEPTableIndex byte // 0..63.

	// EEP fields.
	EEPProfile byte // 'A' or 'B'.
	EEPLevel   byte // 1..4.
}

// EEP profile identifiers.
const (
	EEPProfileA = 'A'
	EEPProfileB = 'B'
)

// SubChannel describes one MSC payload stream and its slot within the
// 864-CU common interleaved frame (§3).
type SubChannel struct {
	UID       string
	ID        byte // 6-bit ensemble-unique id, 0..63.
	Type      SubChannelType
	BitrateKb int // kbit/s, must be a multiple of 8.
	Start     int // CU, assigned in declaration order.
	Size      int // CU, derived from bitrate+protection.
	Protect   Protection

	BufferPolicy BufferPolicy
	InputURI     string
}

// BufferPolicy selects how an input's queue releases frames (§4.C, §4.E).
type BufferPolicy int

// Buffer management policies.
const (
	Prebuffering BufferPolicy = iota
	Timestamped
)

// Service describes one DAB service (§3).
type Service struct {
	UID      string
	SId      uint32 // 16-bit for programme services, 32-bit for data (PD=1).
	ECC      byte
	PTy      byte
	PTyDynamic bool
	Language byte
	ASu      uint16 // Announcement support bitmap.
	Clusters []string // Announcement cluster uids this service supports.

	LongLabel     string
	ShortLabelSet uint16
	ExtendedLabel *ExtendedLabel
}

// Component describes one service component, linking a service to a
// sub-channel (§3).
type Component struct {
	UID          string
	ServiceUID   string
	SubChanUID   string
	SCIdS        byte // Monotonically assigned per service: 0, 1, 2, ...
	ComponentType byte // 8 bits; 0x0=MP2, 0x3F=AAC/DAB+, programmer-supplied for data.

	// Packet-mode only.
	IsPacket    bool
	PacketID    uint16 // 12 bits.
	PacketAddr  uint16 // 10 bits.
	DataGroup   bool

	UserApps []UserApplication
}

// UserApplication describes an X-PAD or packet-mode user application
// descriptor (FIG 0/13, §4.F).
type UserApplication struct {
	Type   uint16
	XPAD   bool
	AppData []byte
}

// LinkType enumerates the kinds of linked service a LinkEntry may name.
type LinkType int

// Link types.
const (
	LinkDAB LinkType = iota
	LinkFM
	LinkDRM
	LinkAMSS
)

// LinkEntry names one linked service within a LinkageSet.
type LinkEntry struct {
	Type LinkType
	ID   uint32 // 16 bits for DAB/FM, 32 bits for DRM/AMSS (AMSS 24 bits, stored in low bits).
	ECC  byte   // Optional 8-bit ECC; 0 means absent.
	HasECC bool
}

// LinkageSet groups a key service with a set of equivalent broadcasts
// across other networks (§3).
type LinkageSet struct {
	LSN           uint16 // 12 bits.
	Active        bool
	Hard          bool // true=hard, false=soft.
	International bool
	KeyServiceUID string
	Links         []LinkEntry
}

// AnnouncementCluster names a set of announcement types and the
// sub-channel providing them (§3).
type AnnouncementCluster struct {
	UID        string
	ClusterID  byte // 1..254; 255 = alarm.
	Flags      uint16
	SubChanUID string
}

// AlarmClusterID is the reserved cluster id that triggers the ensemble
// alarm flag.
const AlarmClusterID = 255

// RangeModulation enumerates the broadcast system a FrequencyInfo record
// describes (§3).
type RangeModulation int

// Range modulations.
const (
	RMDab RangeModulation = iota
	RMFMRDS
	RMDRM
	RMAMSS
)

// DABFrequency is one alternative-frequency entry for a FrequencyInfo of
// type DAB.
type DABFrequency struct {
	FreqKHz16  uint16 // 16kHz units.
	Adjacent   bool
	ModeI      bool
}

// FrequencyInfo describes alternative frequencies on which an ensemble or
// service is also carried (§3).
type FrequencyInfo struct {
	RM RangeModulation
	OE bool // other-ensemble flag.
	Continuity bool

	// DAB fields.
	ForeignEId uint16
	DABFreqs   []DABFrequency

	// FM fields.
	PICode    uint16
	FMFreqs100kHz []uint16 // Offsets from 87.5MHz in 100kHz units.

	// DRM/AMSS fields.
	ServiceID24 uint32
	FreqsKHz    []uint32
}

// OtherEnsembleService names an SId that is also available in other
// ensembles (§3).
type OtherEnsembleService struct {
	SId  uint32
	EIds []uint16
}
