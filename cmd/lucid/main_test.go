package main

import (
	"errors"
	"testing"

	"github.com/lucid-ml/lucid/autodiff"
	"github.com/lucid-ml/lucid/backend/cpu"
	"github.com/lucid-ml/lucid/vision"
)

func TestParseRange(t *testing.T) {
	start, end, step, err := parseRange("0:64:4")
	if err != nil {
		t.Fatal(err)
	}
	if start != 0 || end != 64 || step != 4 {
		t.Errorf("parseRange = %d, %d, %d", start, end, step)
	}

	invalid := []string{"", "0:64", "0:64:4:2", "a:b:c", "4:4:1", "8:4:1", "0:8:0", "-1:8:1"}
	for _, spec := range invalid {
		if _, _, _, err := parseRange(spec); err == nil {
			t.Errorf("parseRange(%q) should fail", spec)
		}
	}
}

func TestFans(t *testing.T) {
	fanIn, fanOut := fans([]int{16, 3, 3, 3})
	if fanIn != 27 || fanOut != 144 {
		t.Errorf("conv fans = %d, %d, want 27, 144", fanIn, fanOut)
	}

	fanIn, fanOut = fans([]int{32, 64})
	if fanIn != 64 || fanOut != 32 {
		t.Errorf("linear fans = %d, %d, want 64, 32", fanIn, fanOut)
	}
}

func TestTranslate_KeepsSentinels(t *testing.T) {
	err := translate(vision.ErrLayerNotFound)
	if err == nil || err == vision.ErrLayerNotFound {
		t.Error("translate should wrap the sentinel in a hint")
	}

	plain := errors.New("disk full")
	if translate(plain) != plain {
		t.Error("unrelated errors should pass through unchanged")
	}
}

func TestNewDemoEncoder_DeterministicWeights(t *testing.T) {
	a := newDemoEncoder(autodiff.New(cpu.New()))
	b := newDemoEncoder(autodiff.New(cpu.New()))

	ap, bp := a.Parameters(), b.Parameters()
	if len(ap) != len(bp) {
		t.Fatalf("parameter counts differ: %d vs %d", len(ap), len(bp))
	}
	for i := range ap {
		ad, bd := ap[i].Tensor().Data(), bp[i].Tensor().Data()
		for j := range ad {
			if ad[j] != bd[j] {
				t.Fatalf("parameter %d diverges at element %d", i, j)
			}
		}
	}
}
