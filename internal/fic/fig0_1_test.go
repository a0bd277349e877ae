package fic

import "testing"

func TestFIG0_1EmitsUEPAndEEPEntries(t *testing.T) {
	e := fixtureEnsemble()
	g := NewFIG0_1(e, "test-ident")

	buf := make([]byte, 64)
	n, complete := g.Fill(buf, len(buf))
	if !complete {
		t.Fatalf("expected single-call completion for 2 sub-channels, got n=%d", n)
	}
	if n < 2+3+4 {
		t.Fatalf("wrote %d bytes, want at least header + UEP(3) + EEP(4)", n)
	}
	if ext := buf[1] & 0x1F; ext != 1 {
		t.Fatalf("FIG extension = %d, want 1", ext)
	}
}

func TestFIG0_1RespectsSpaceLimit(t *testing.T) {
	e := fixtureEnsemble()
	g := NewFIG0_1(e, "test-ident")

	buf := make([]byte, 5) // not enough for header + one entry.
	n, complete := g.Fill(buf, len(buf))
	if n != 0 || complete {
		t.Fatalf("Fill with too little space = (%d, %v), want (0, false)", n, complete)
	}
}
