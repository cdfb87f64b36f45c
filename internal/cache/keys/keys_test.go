package keys

import (
	"regexp"
	"testing"
)

func TestCellSet_Deterministic(t *testing.T) {
	k1 := CellSet(8, "881969404bfffff", 1)
	k2 := CellSet(8, "881969404bfffff", 1)
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if k1 != "hexview:cellset:v1:8:881969404bfffff:k=1" {
		t.Fatalf("unexpected key layout: %s", k1)
	}
}

func TestCellSet_NormalizesCell(t *testing.T) {
	k1 := CellSet(8, " 881969404BFFFFF ", 1)
	k2 := CellSet(8, "881969404bfffff", 1)
	if k1 != k2 {
		t.Fatalf("normalized keys differ:\n k1=%s\n k2=%s", k1, k2)
	}
	if !regexp.MustCompile(`^[a-z0-9:=]+$`).MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestCellSet_DifferentInputsDiffer(t *testing.T) {
	base := CellSet(8, "881969404bfffff", 1)
	if base == CellSet(7, "881969404bfffff", 1) {
		t.Fatalf("resolution must be part of the key")
	}
	if base == CellSet(8, "881969404bfffff", 2) {
		t.Fatalf("ring size must be part of the key")
	}
}
