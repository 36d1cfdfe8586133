package climate

import (
	"reflect"
	"strings"
	"testing"
)

const framerInput = "boot ok\ntemp=21.5 humidity=40.1\n\nDHT read failed\ntemp=22.0 humidity=41.0\npartial"

func TestLineFramerWholeInput(t *testing.T) {
	var f LineFramer
	got := f.Push(framerInput)
	want := []string{"boot ok", "temp=21.5 humidity=40.1", "", "DHT read failed", "temp=22.0 humidity=41.0"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Push: got %q, want %q", got, want)
	}
	if f.Pending() != "partial" {
		t.Errorf("Pending(): got %q, want %q", f.Pending(), "partial")
	}
}

func TestLineFramerChunkingIsTransparent(t *testing.T) {
	var whole LineFramer
	want := whole.Push(framerInput)

	for size := 1; size <= len(framerInput); size++ {
		var f LineFramer
		var got []string
		for i := 0; i < len(framerInput); i += size {
			end := i + size
			if end > len(framerInput) {
				end = len(framerInput)
			}
			got = append(got, f.Push(framerInput[i:end])...)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: got %q, want %q", size, got, want)
		}
		if f.Pending() != whole.Pending() {
			t.Fatalf("chunk size %d: pending %q, want %q", size, f.Pending(), whole.Pending())
		}
	}
}

func TestLineFramerNoNewline(t *testing.T) {
	var f LineFramer
	if lines := f.Push("temp=2"); lines != nil {
		t.Errorf("expected no lines, got %q", lines)
	}
	lines := f.Push("1 humidity=3\n")
	if len(lines) != 1 || lines[0] != "temp=21 humidity=3" {
		t.Errorf("reassembled line: got %q", lines)
	}
	if f.Pending() != "" {
		t.Errorf("Pending(): got %q, want empty", f.Pending())
	}
}

func TestLineFramerLongLine(t *testing.T) {
	var f LineFramer
	long := strings.Repeat("x", 1<<20)
	f.Push(long)
	lines := f.Push("\n")
	if len(lines) != 1 || len(lines[0]) != len(long) {
		t.Errorf("expected one line of %d bytes", len(long))
	}
}
