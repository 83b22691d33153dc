package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func box(boxType string, payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(boxType)
	buf.Write(payload)
	return buf.Bytes()
}

func ftypBox() []byte {
	var p bytes.Buffer
	p.WriteString("isom")
	_ = binary.Write(&p, binary.BigEndian, uint32(0x200))
	p.WriteString("isom")
	return box("ftyp", p.Bytes())
}

// mvhdBox builds a version 0 movie header
func mvhdBox(timescale, duration uint32) []byte {
	var p bytes.Buffer
	p.Write([]byte{0, 0, 0, 0}) // version, flags
	_ = binary.Write(&p, binary.BigEndian, uint32(0))
	_ = binary.Write(&p, binary.BigEndian, uint32(0))
	_ = binary.Write(&p, binary.BigEndian, timescale)
	_ = binary.Write(&p, binary.BigEndian, duration)
	_ = binary.Write(&p, binary.BigEndian, uint32(0x00010000)) // rate 1.0
	_ = binary.Write(&p, binary.BigEndian, uint16(0x0100))     // volume 1.0
	p.Write(make([]byte, 10))
	matrix := []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	for _, v := range matrix {
		_ = binary.Write(&p, binary.BigEndian, v)
	}
	p.Write(make([]byte, 24))
	_ = binary.Write(&p, binary.BigEndian, uint32(2))
	return box("mvhd", p.Bytes())
}

// trakBox builds the smallest track mp4ff accepts: trak/mdia/minf/stbl/stts
func trakBox(sampleCount uint32) []byte {
	var stts bytes.Buffer
	stts.Write([]byte{0, 0, 0, 0}) // version, flags
	_ = binary.Write(&stts, binary.BigEndian, uint32(1))
	_ = binary.Write(&stts, binary.BigEndian, sampleCount)
	_ = binary.Write(&stts, binary.BigEndian, uint32(1024))

	stbl := box("stbl", box("stts", stts.Bytes()))
	return box("trak", box("mdia", box("minf", stbl)))
}

func moovBox(timescale, duration uint32) []byte {
	return box("moov", append(mvhdBox(timescale, duration), trakBox(12)...))
}

func writeFile(t *testing.T, name string, parts ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Join(parts, nil), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProbe_FastStart(t *testing.T) {
	moov := moovBox(1000, 12500)
	mdat := box("mdat", []byte{1, 2, 3, 4})
	path := writeFile(t, "clip.mp4", ftypBox(), moov, mdat)

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !info.Inspected {
		t.Error("Inspected = false, expected true")
	}
	if !info.FastStart {
		t.Error("FastStart = false, expected true")
	}
	if info.Fragmented {
		t.Error("Fragmented = true for a progressive file")
	}
	if info.Duration != 12500*time.Millisecond {
		t.Errorf("Duration = %v, expected %v", info.Duration, 12500*time.Millisecond)
	}
	if info.Size != int64(len(ftypBox())+len(moov)+len(mdat)) {
		t.Errorf("Size = %d", info.Size)
	}
}

func TestProbe_MoovAtEnd(t *testing.T) {
	path := writeFile(t, "late.m4a", ftypBox(), box("mdat", []byte{9, 9}), moovBox(44100, 44100*3))

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.FastStart {
		t.Error("FastStart = true, expected false")
	}
	if info.Duration != 3*time.Second {
		t.Errorf("Duration = %v, expected 3s", info.Duration)
	}
}

func TestProbe_MoovWithoutTrack(t *testing.T) {
	moov := box("moov", mvhdBox(44100, 44100*3))
	path := writeFile(t, "broken.m4a", ftypBox(), box("mdat", []byte{9, 9}), moov)

	info, err := Probe(path)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Probe() error = %v, expected ErrMalformed", err)
	}
	if info.Inspected {
		t.Error("Inspected = true for an undecodable file")
	}
	if info.Size == 0 {
		t.Error("Size = 0, expected the stat size to survive a decode failure")
	}
}

func TestProbe_OtherContainer(t *testing.T) {
	path := writeFile(t, "video.webm", []byte("not an iso file"))

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Inspected {
		t.Error("Inspected = true for webm")
	}
	if info.Size != int64(len("not an iso file")) {
		t.Errorf("Size = %d", info.Size)
	}
}

func TestProbe_Missing(t *testing.T) {
	if _, err := Probe(filepath.Join(t.TempDir(), "nope.mp4")); err == nil {
		t.Error("Probe() expected error for missing file")
	}
}

func TestScaledDuration(t *testing.T) {
	tests := []struct {
		units     uint64
		timescale uint32
		expected  time.Duration
	}{
		{90000, 90000, time.Second},
		{1500, 1000, 1500 * time.Millisecond},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := scaledDuration(tt.units, tt.timescale); got != tt.expected {
			t.Errorf("scaledDuration(%d, %d) = %v, expected %v", tt.units, tt.timescale, got, tt.expected)
		}
	}
}
