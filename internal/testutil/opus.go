package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hraban/opus"
)

const opusFrame = 960 // 20 ms at 48 kHz

// WriteOpus writes an Ogg Opus sine tone with the given channel count. Every
// channel carries the same tone scaled by its position, so decoders can tell
// the channels apart: channel c has amplitude (c+1)/channels of full tone.
func WriteOpus(t testing.TB, path string, channels int, length time.Duration, freq float64) {
	t.Helper()

	if channels != 1 && channels != 2 {
		// wider layouts need a mapping table
		t.Fatalf("WriteOpus writes 1 or 2 channels, got %d", channels)
	}
	enc, err := opus.NewEncoder(48000, channels, opus.AppAudio)
	if err != nil {
		t.Fatal(err)
	}

	var ogg oggWriter
	ogg.serial = 0x6d757369

	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = byte(channels)
	binary.LittleEndian.PutUint32(head[12:], 48000)
	ogg.page(head, 0, 0x02)

	tags := []byte("OpusTags")
	tags = binary.LittleEndian.AppendUint32(tags, 8)
	tags = append(tags, "testutil"...)
	tags = binary.LittleEndian.AppendUint32(tags, 0)
	ogg.page(tags, 0, 0)

	frames := int(48000 * length.Seconds())
	pcm := make([]int16, opusFrame*channels)
	data := make([]byte, 4000)
	var granule int64
	for done := 0; done < frames; done += opusFrame {
		for i := 0; i < opusFrame; i++ {
			v := math.Sin(2 * math.Pi * freq * float64(done+i) / 48000)
			for c := 0; c < channels; c++ {
				pcm[i*channels+c] = int16(v * 12000 * float64(c+1) / float64(channels))
			}
		}
		n, err := enc.Encode(pcm, data)
		if err != nil {
			t.Fatal(err)
		}
		granule += opusFrame
		flags := byte(0)
		if done+opusFrame >= frames {
			flags = 0x04
		}
		ogg.page(data[:n], granule, flags)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, ogg.buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// oggWriter puts one packet on each page.
type oggWriter struct {
	buf    bytes.Buffer
	serial uint32
	seq    uint32
}

func (w *oggWriter) page(packet []byte, granule int64, flags byte) {
	var segs []byte
	rest := len(packet)
	for rest >= 255 {
		segs = append(segs, 255)
		rest -= 255
	}
	segs = append(segs, byte(rest))

	hdr := make([]byte, 27, 27+len(segs))
	copy(hdr, "OggS")
	hdr[5] = flags
	binary.LittleEndian.PutUint64(hdr[6:], uint64(granule))
	binary.LittleEndian.PutUint32(hdr[14:], w.serial)
	binary.LittleEndian.PutUint32(hdr[18:], w.seq)
	hdr[26] = byte(len(segs))
	hdr = append(hdr, segs...)
	w.seq++

	page := append(hdr, packet...)
	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
	w.buf.Write(page)
}

var oggTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

// oggCRC is the unreflected CRC-32 Ogg pages carry, which hash/crc32 does
// not provide.
func oggCRC(b []byte) uint32 {
	var crc uint32
	for _, v := range b {
		crc = crc<<8 ^ oggTable[byte(crc>>24)^v]
	}
	return crc
}
