package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestConnectivityError_Unwrap(t *testing.T) {
	cause := errors.New("auth failed")
	err := error(&ConnectivityError{URI: "neo4j://db:7687", Err: cause})
	if !errors.Is(err, ErrConnectivity) {
		t.Fatal("expected ErrConnectivity")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if !strings.Contains(err.Error(), "neo4j://db:7687") {
		t.Fatalf("uri missing from %q", err.Error())
	}
}

func TestStoreError_PassThrough(t *testing.T) {
	if NewStoreError("list", "", nil) != nil {
		t.Fatal("nil cause should give nil error")
	}
	first := NewStoreError("upsert node", "Person", errors.New("boom"))
	second := NewStoreError("commit", "", first)
	if second != first {
		t.Fatal("existing StoreError should pass through")
	}
	if !errors.Is(second, ErrStoreUnavailable) {
		t.Fatal("expected ErrStoreUnavailable")
	}
	var se *StoreError
	if !errors.As(second, &se) || se.Type != "Person" {
		t.Fatalf("unexpected: %+v", se)
	}
}

func TestTypedErrors_Is(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&UnknownTypeError{Kind: KindNode, Type: "Robot"}, ErrUnknownType},
		{&UnknownValueError{Kind: KindEdge, Type: "Friendship", Value: "Rival"}, ErrUnknownValue},
		{&IncompleteSelectionError{Slot: SlotNodeB, Missing: "type"}, ErrIncompleteSelection},
		{NewValidationError("type", "", ErrInvalidName), ErrInvalidName},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%v: expected %v", tc.err, tc.want)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if s, err := ParseSlot("b"); err != nil || s != SlotNodeB {
		t.Fatalf("ParseSlot(b) = %v, %v", s, err)
	}
	if _, err := ParseSlot("c"); err == nil {
		t.Fatal("expected error for unknown slot")
	}
	if m, err := ParseMode("bulk"); err != nil || m != ModeBulk {
		t.Fatalf("ParseMode(bulk) = %v, %v", m, err)
	}
	if k, err := ParseKind("edge"); err != nil || k != KindEdge {
		t.Fatalf("ParseKind(edge) = %v, %v", k, err)
	}
	if SlotEdge.Kind() != KindEdge || SlotNodeA.Kind() != KindNode {
		t.Fatal("slot kinds wrong")
	}
}
