package fic

import (
	"testing"
	"time"

	"github.com/ausocean/dabmux/internal/ensemble"
)

func TestFIG0_19SkipsClustersWithoutID(t *testing.T) {
	e := fixtureEnsemble()
	e.Clusters = []*ensemble.AnnouncementCluster{
		{UID: "c0", ClusterID: 0, Flags: 0x0001, SubChanUID: "sub0"},
	}
	now := time.Now()
	g := NewFIG0_19(e, func() time.Time { return now })

	buf := make([]byte, 32)
	n, _ := g.Fill(buf, len(buf))
	if n != 0 {
		t.Fatalf("expected no entry for cluster id 0, got %d bytes", n)
	}
}

func TestFIG0_19EmitsActiveClusterEntry(t *testing.T) {
	e := fixtureEnsemble()
	e.Clusters = []*ensemble.AnnouncementCluster{
		{UID: "c0", ClusterID: 3, Flags: 0x0010, SubChanUID: "sub0"},
	}
	now := time.Now()
	g := NewFIG0_19(e, func() time.Time { return now })

	buf := make([]byte, 32)
	n, complete := g.Fill(buf, len(buf))
	if !complete || n != 6 {
		t.Fatalf("Fill = (%d, %v), want (6, true)", n, complete)
	}
	if buf[2] != 3 {
		t.Fatalf("ClusterId = %d, want 3", buf[2])
	}
	if asw := uint16(buf[3])<<8 | uint16(buf[4]); asw != 0x0010 {
		t.Fatalf("ASw = %04x, want 0010", asw)
	}
	if buf[5]&0x01 == 0 {
		t.Fatalf("NewFlag bit not set")
	}
}

func TestFIG0_19KeepsDisabledClusterWithinStabilizationWindow(t *testing.T) {
	e := fixtureEnsemble()
	cluster := &ensemble.AnnouncementCluster{UID: "c0", ClusterID: 5, Flags: 0x0001, SubChanUID: "sub0"}
	e.Clusters = []*ensemble.AnnouncementCluster{cluster}

	now := time.Now()
	g := NewFIG0_19(e, func() time.Time { return now })

	buf := make([]byte, 32)
	g.Fill(buf, len(buf)) // first loop: cluster active, establishes wasActive.

	cluster.Flags = 0 // cluster goes inactive.
	n, _ := g.Fill(buf, len(buf))
	if n != 6 {
		t.Fatalf("disabled cluster should still be transmitted within the stabilization window, got n=%d", n)
	}
	if asw := uint16(buf[3])<<8 | uint16(buf[4]); asw != 0 {
		t.Fatalf("ASw for disabled cluster = %04x, want 0 (no announcement active)", asw)
	}

	now = now.Add(3 * time.Second) // past the 2s stabilization window.
	n, _ = g.Fill(buf, len(buf))
	if n != 0 {
		t.Fatalf("disabled cluster past the stabilization window should be dropped, got n=%d", n)
	}
}
