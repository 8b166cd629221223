package rpc

import (
	"bytes"
	"testing"
)

type infoPayload struct {
	Name      string `json:"name"`
	Listeners int    `json:"listeners"`
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := infoPayload{Name: "ZelFM", Listeners: 3}

	if err := WriteFrame(&buf, MethodInfo, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	f, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Method != MethodInfo {
		t.Fatalf("got method %q, want %q", f.Method, MethodInfo)
	}

	var got infoPayload
	if err := Decode(f, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestErrorFrameDecodesAsError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, "ListenerInfoMissing"); err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	f, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	var got infoPayload
	err = Decode(f, &got)
	if err == nil || err.Error() != "ListenerInfoMissing" {
		t.Fatalf("got err %v, want ListenerInfoMissing", err)
	}
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x7f, 0xff, 0xff, 0xff}) // huge length prefix, no body
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected an error for an oversize frame length")
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteFrame(&buf, MethodInfo, infoPayload{Name: "a"})
	_ = WriteFrame(&buf, MethodInfo, infoPayload{Name: "b"})

	f1, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame 1: %v", err)
	}
	f2, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame 2: %v", err)
	}

	var p1, p2 infoPayload
	_ = Decode(f1, &p1)
	_ = Decode(f2, &p2)
	if p1.Name != "a" || p2.Name != "b" {
		t.Fatalf("got %q then %q, want a then b", p1.Name, p2.Name)
	}
}
