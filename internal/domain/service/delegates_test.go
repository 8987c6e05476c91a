package service

import (
	"reflect"
	"testing"
)

// recordingDelegates notes every hook invocation in order.
type recordingDelegates struct {
	log []string
}

func (d *recordingDelegates) EnterStage(name string) {
	d.log = append(d.log, "enter:"+name)
}

func (d *recordingDelegates) LeaveStage(name string, _ map[string]string) {
	d.log = append(d.log, "leave:"+name)
}

func (d *recordingDelegates) StreamDelta(text string) {
	d.log = append(d.log, "delta:"+text)
}

func TestJoin_FansOutInOrder(t *testing.T) {
	first := &recordingDelegates{}
	second := &recordingDelegates{}

	chain := Join(first, nil, second)
	chain.EnterStage("Reason")
	chain.StreamDelta("hi")
	chain.LeaveStage("Reason", nil)

	want := []string{"enter:Reason", "delta:hi", "leave:Reason"}
	if !reflect.DeepEqual(first.log, want) {
		t.Errorf("first delegate saw %v, want %v", first.log, want)
	}
	if !reflect.DeepEqual(second.log, want) {
		t.Errorf("second delegate saw %v, want %v", second.log, want)
	}
}

func TestStreamFunc_OnlyStreams(t *testing.T) {
	var got []string
	d := StreamFunc(func(delta string) { got = append(got, delta) })

	d.EnterStage("Reason")
	d.LeaveStage("Reason", nil)
	d.StreamDelta("a")
	d.StreamDelta("b")

	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected deltas only, got %v", got)
	}
}

func TestNewContext_DefaultsNilDelegates(t *testing.T) {
	c := NewContext("q", nil, nil)
	if c.Delegates == nil {
		t.Fatal("nil delegates must default to no-ops")
	}
	// Must not panic.
	c.Delegates.EnterStage("Reason")
	c.Delegates.LeaveStage("Reason", nil)
	c.Delegates.StreamDelta("x")
}
