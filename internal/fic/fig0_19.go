/*
DESCRIPTION
  fig0_19.go implements FIG 0/19, announcement switching: one 4-byte
  entry per announcement cluster that is either currently active,
  newly active, or was recently deactivated and is still inside its
  stabilization window (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_19.cpp's FIGtype0_19 layout). New and repeated clusters are not told apart, and
  Rate() is RateA whatever state the clusters are in.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import (
	"time"

	"github.com/ausocean/dabmux/internal/ensemble"
)

// stabilizationWindow is how long a cluster that just went inactive keeps
// being announced with ASw=0, so receivers mid-reception of it don't see
// it vanish without a transition period.
const stabilizationWindow = 2 * time.Second

// clusterTransition tracks which announcement clusters were active on the
// previous FIG0_19.Fill loop, holding a cluster that has gone inactive in
// the transmitted set until stabilizationWindow elapses. It does not tell
// new clusters from repeated ones.
type clusterTransition struct {
	now       func() time.Time
	wasActive map[string]bool
	disabled  map[string]time.Time // uid -> deadline.
}

func newClusterTransition(now func() time.Time) *clusterTransition {
	return &clusterTransition{
		now:       now,
		wasActive: make(map[string]bool),
		disabled:  make(map[string]time.Time),
	}
}

// update recomputes the set of clusters to transmit this loop: every
// currently-active cluster, plus any cluster that went inactive within
// stabilizationWindow.
func (t *clusterTransition) update(clusters []*ensemble.AnnouncementCluster) []*ensemble.AnnouncementCluster {
	now := t.now()
	active := make(map[string]*ensemble.AnnouncementCluster, len(clusters))
	for _, c := range clusters {
		if c.Flags != 0 {
			active[c.UID] = c
		}
	}

	for uid := range t.wasActive {
		if _, stillActive := active[uid]; !stillActive {
			if _, already := t.disabled[uid]; !already {
				t.disabled[uid] = now.Add(stabilizationWindow)
			}
		}
	}
	for uid := range active {
		delete(t.disabled, uid)
	}

	t.wasActive = make(map[string]bool, len(active))
	for uid := range active {
		t.wasActive[uid] = true
	}

	var out []*ensemble.AnnouncementCluster
	for _, c := range clusters {
		if _, ok := active[c.UID]; ok {
			out = append(out, c)
		}
	}
	for uid, deadline := range t.disabled {
		if now.After(deadline) {
			delete(t.disabled, uid)
			continue
		}
		for _, c := range clusters {
			if c.UID == uid {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FIG0_19 emits announcement switching entries.
type FIG0_19 struct {
	e          *ensemble.Ensemble
	transition *clusterTransition
}

// NewFIG0_19 returns a FIG 0/19 generator sourcing wall-clock time from now.
func NewFIG0_19(e *ensemble.Ensemble, now func() time.Time) *FIG0_19 {
	return &FIG0_19{e: e, transition: newClusterTransition(now)}
}

func (f *FIG0_19) FIGType() int      { return 0 }
func (f *FIG0_19) FIGExtension() int { return 19 }
func (f *FIG0_19) Rate() Rate        { return RateA }

func (f *FIG0_19) subChannelID(uid string) (byte, bool) {
	for _, sc := range f.e.SubChannels {
		if sc.UID == uid {
			return sc.ID, true
		}
	}
	return 0, false
}

func (f *FIG0_19) Fill(buf []byte, maxLen int) (int, bool) {
	clusters := f.transition.update(f.e.Clusters)

	const entrySize = 4
	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0
	complete := true

	for _, c := range clusters {
		if c.ClusterID == 0 {
			continue
		}
		if !haveHeader {
			if remaining < 2+entrySize {
				complete = false
				break
			}
			writeFIG0Header(buf, 1, 19, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			complete = false
			break
		}

		e := buf[written : written+entrySize]
		e[0] = c.ClusterID
		var asw uint16
		if c.Flags != 0 {
			asw = c.Flags
		}
		e[1] = byte(asw >> 8)
		e[2] = byte(asw)
		subChID, _ := f.subChannelID(c.SubChanUID)
		// byte3: SubChId(6)<<2 | RegionFlag(1)<<1 | NewFlag(1). NewFlag is
		// hardwired to 1: some receivers never switch to an announcement
		// if it arrives with NewFlag cleared.
		e[3] = subChID&0x3F<<2 | 1

		written += entrySize
		remaining -= entrySize
		length += entrySize
		setFIG0Length(buf, length)
	}

	return written, complete
}
