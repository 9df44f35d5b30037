package subscription

import (
	"reflect"
	"testing"
	"time"

	"opcpub/internal/ua"
)

func TestEventFields_OrderMatchesSelectClauses(t *testing.T) {
	event := ua.Event{
		EventID:    []byte{0x01, 0x02},
		SourceName: "boiler-1",
		Message:    "pressure rising",
		Severity:   300,
		Fields:     map[string]ua.Variant{"Pressure": 4.2},
	}
	filter := ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
		{BrowsePath: []ua.QualifiedName{{Name: "Severity"}}},
		{BrowsePath: []ua.QualifiedName{{Name: "EventId"}}},
		{BrowsePath: []ua.QualifiedName{{Name: "Message"}}},
		{BrowsePath: []ua.QualifiedName{{Name: "Pressure"}}}, // custom field
	}}

	fields := eventFields(filter, &event)

	want := []ua.Variant{uint16(300), []byte{0x01, 0x02}, "pressure rising", 4.2}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("eventFields = %v, want %v", fields, want)
	}
}

func TestEventFields_WellKnownNames(t *testing.T) {
	now := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	event := ua.Event{
		EventID:     []byte{0xAA},
		EventType:   "ns=0;i=2041",
		SourceNode:  "ns=1;s=Boiler",
		SourceName:  "boiler-1",
		Message:     "overheat",
		Severity:    900,
		Time:        now,
		ReceiveTime: now.Add(time.Second),
		LocalTime:   now.Add(2 * time.Second),
	}

	cases := []struct {
		name string
		want ua.Variant
	}{
		{"EventId", []byte{0xAA}},
		{"EventType", ua.NodeID("ns=0;i=2041")},
		{"SourceNode", ua.NodeID("ns=1;s=Boiler")},
		{"SourceName", "boiler-1"},
		{"Message", "overheat"},
		{"Severity", uint16(900)},
		{"Time", now},
		{"ReceiveTime", now.Add(time.Second)},
		{"LocalTime", now.Add(2 * time.Second)},
	}
	for _, tc := range cases {
		filter := ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
			{BrowsePath: []ua.QualifiedName{{Name: tc.name}}},
		}}
		fields := eventFields(filter, &event)
		if len(fields) != 1 || !reflect.DeepEqual(fields[0], tc.want) {
			t.Errorf("%s = %v, want %v", tc.name, fields, tc.want)
		}
	}
}

func TestEventFields_DirectAttributeSelect(t *testing.T) {
	event := ua.Event{SourceNode: "ns=1;s=Boiler", Message: "overheat"}
	filter := ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
		{AttributeID: ua.AttrNodeID},      // no browse path
		{AttributeID: ua.AttrDescription}, // no browse path
	}}

	fields := eventFields(filter, &event)

	want := []ua.Variant{ua.NodeID("ns=1;s=Boiler"), "overheat"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("eventFields = %v, want %v", fields, want)
	}
}

func TestEventFields_NonZeroNamespaceSkipsWellKnown(t *testing.T) {
	// A namespaced "Severity" is a custom field, not the base event one.
	event := ua.Event{
		Severity: 100,
		Fields:   map[string]ua.Variant{"Severity": "vendor-specific"},
	}
	filter := ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
		{BrowsePath: []ua.QualifiedName{{NamespaceIndex: 1, Name: "Severity"}}},
	}}

	fields := eventFields(filter, &event)

	if len(fields) != 1 || fields[0] != "vendor-specific" {
		t.Errorf("eventFields = %v, want [vendor-specific]", fields)
	}
}

func TestEventFields_UnknownFieldYieldsNil(t *testing.T) {
	event := ua.Event{Severity: 100}
	filter := ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
		{BrowsePath: []ua.QualifiedName{{Name: "NoSuchField"}}},
		{BrowsePath: []ua.QualifiedName{{Name: "Severity"}}},
	}}

	fields := eventFields(filter, &event)

	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(fields))
	}
	if fields[0] != nil {
		t.Errorf("unknown field = %v, want nil", fields[0])
	}
	if fields[1] != uint16(100) {
		t.Errorf("Severity = %v, want 100", fields[1])
	}
}
