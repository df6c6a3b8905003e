package game

import (
	"math"
	"testing"
)

func TestComputeCrashPointDeterministic(t *testing.T) {
	a := ComputeCrashPoint("server-seed", "client_seed_1700000000000", "round-1")
	b := ComputeCrashPoint("server-seed", "client_seed_1700000000000", "round-1")
	if a != b {
		t.Errorf("same seed triple gave %v and %v", a, b)
	}

	c := ComputeCrashPoint("server-seed", "client_seed_1700000000000", "round-2")
	if a == c {
		t.Errorf("different round IDs gave the same crash point %v", a)
	}
}

func TestComputeCrashPointBounds(t *testing.T) {
	triples := []struct {
		server, client, round string
	}{
		{"a", "b", "c"},
		{"", "", ""},
		{"3f2a9c", "client_seed_1700000000000", "0b4f1d2e-8a9c-4f3e-b1d2-7c6e5f4a3b2c"},
		{"deadbeef", "client_seed_1", "round"},
		{"seed", "seed", "seed"},
	}
	for _, tr := range triples {
		cp := ComputeCrashPoint(tr.server, tr.client, tr.round)
		if cp < 1.01 || cp > 15.0 {
			t.Errorf("crash point %v outside [1.01, 15.0] for %q%q%q", cp, tr.server, tr.client, tr.round)
		}
	}
}

func TestCrashPointFromSeed(t *testing.T) {
	t.Run("tiny seed clamps to ceiling", func(t *testing.T) {
		if cp := crashPointFromSeed(1); cp != 15.0 {
			t.Errorf("seed 1 gave %v, want 15.0", cp)
		}
		if cp := crashPointFromSeed(0); cp != 15.0 {
			t.Errorf("seed 0 gave %v, want 15.0", cp)
		}
	})

	t.Run("max seed clamps to floor", func(t *testing.T) {
		if cp := crashPointFromSeed(math.MaxUint32); cp != 1.01 {
			t.Errorf("seed 2^32-1 gave %v, want 1.01", cp)
		}
	})

	t.Run("house edge discounts fair payout", func(t *testing.T) {
		// seed 2^31-1: fair value ~2.0, with the 1% cut just under it
		cp := crashPointFromSeed(1<<31 - 1)
		if cp >= 2.0 || cp < 1.97 {
			t.Errorf("mid seed gave %v, want just under 2.0", cp)
		}
	})
}

func TestVerifyCrashPoint(t *testing.T) {
	cp := ComputeCrashPoint("server", "client", "round")

	if !VerifyCrashPoint("server", "client", "round", cp) {
		t.Error("exact crash point did not verify")
	}
	if !VerifyCrashPoint("server", "client", "round", cp+0.005) {
		t.Error("crash point within tolerance did not verify")
	}
	if VerifyCrashPoint("server", "client", "round", cp+0.5) {
		t.Error("wrong crash point verified")
	}
	if VerifyCrashPoint("tampered", "client", "round", cp) {
		t.Error("tampered server seed verified")
	}
}
