package addrspace

import (
	"testing"

	"github.com/rs/zerolog"

	"opcpub/internal/ua"
)

const sensorNode = ua.NodeID("ns=1;s=Sensor")

func newTestSimSpace() *SimSpace {
	s := NewSimSpace(zerolog.Nop())
	s.AddNode(sensorNode, map[ua.AttributeID]ua.Variant{ua.AttrValue: 1.0})
	return s
}

func TestSimSpace_ReadWrite(t *testing.T) {
	s := newTestSimSpace()

	dv := s.ReadAttribute(sensorNode, ua.AttrValue)
	if dv.Status != ua.Good || dv.Value != 1.0 {
		t.Fatalf("ReadAttribute = %+v, want Good / 1.0", dv)
	}

	if status := s.WriteAttribute(sensorNode, ua.AttrValue, 2.5); status != ua.Good {
		t.Fatalf("WriteAttribute status = %v, want Good", status)
	}
	dv = s.ReadAttribute(sensorNode, ua.AttrValue)
	if dv.Value != 2.5 {
		t.Errorf("value after write = %v, want 2.5", dv.Value)
	}
}

func TestSimSpace_UnknownTargets(t *testing.T) {
	s := newTestSimSpace()

	if dv := s.ReadAttribute("ns=1;s=Missing", ua.AttrValue); dv.Status != ua.BadNodeIDUnknown {
		t.Errorf("read unknown node status = %v, want BadNodeIdUnknown", dv.Status)
	}
	if dv := s.ReadAttribute(sensorNode, ua.AttrDescription); dv.Status != ua.BadAttributeIDInvalid {
		t.Errorf("read unknown attribute status = %v, want BadAttributeIdInvalid", dv.Status)
	}
	if status := s.WriteAttribute("ns=1;s=Missing", ua.AttrValue, 1.0); status != ua.BadNodeIDUnknown {
		t.Errorf("write unknown node status = %v, want BadNodeIdUnknown", status)
	}
	if h := s.RegisterDataChangeCallback("ns=1;s=Missing", ua.AttrValue, nil); h != 0 {
		t.Errorf("registration on unknown node handle = %d, want 0", h)
	}
	if h := s.RegisterDataChangeCallback(sensorNode, ua.AttrDescription, nil); h != 0 {
		t.Errorf("registration on unknown attribute handle = %d, want 0", h)
	}
}

func TestSimSpace_CallbackLifecycle(t *testing.T) {
	s := newTestSimSpace()

	var got []ua.DataValue
	h := s.RegisterDataChangeCallback(sensorNode, ua.AttrValue, func(node ua.NodeID, attr ua.AttributeID, value ua.DataValue) {
		got = append(got, value)
	})
	if h == 0 {
		t.Fatal("registration handle = 0, want non-zero")
	}

	s.WriteAttribute(sensorNode, ua.AttrValue, 3.0)
	if len(got) != 1 || got[0].Value != 3.0 {
		t.Fatalf("callback invocations = %v, want one with 3.0", got)
	}

	// A write to a different attribute of the same node stays silent.
	s.AddNode(sensorNode, map[ua.AttributeID]ua.Variant{ua.AttrValue: 3.0, ua.AttrDescription: "d"})
	s.WriteAttribute(sensorNode, ua.AttrDescription, "changed")
	if len(got) != 1 {
		t.Errorf("callback fired for unrelated attribute, invocations = %d", len(got))
	}

	s.UnregisterDataChangeCallback(h)
	s.WriteAttribute(sensorNode, ua.AttrValue, 4.0)
	if len(got) != 1 {
		t.Errorf("callback fired after unregister, invocations = %d", len(got))
	}

	// Releasing the same handle twice is safe.
	s.UnregisterDataChangeCallback(h)
	if n := s.RegistrationCount(); n != 0 {
		t.Errorf("RegistrationCount = %d, want 0", n)
	}
}
