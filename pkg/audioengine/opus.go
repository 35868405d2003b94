package audioengine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/hraban/opus"

	"musicplay/pkg/spec"
)

var (
	errNotSeekable = errors.New("opus stream is not seekable")
	errNotOpus     = errors.New("not an ogg opus stream")
)

// 120 ms at 48 kHz is the largest opus frame
const maxOpusFrame = 5760

// opusStreamer decodes an Ogg Opus file frame by frame. Opus always decodes
// at 48 kHz; frames come interleaved in the file's channel count.
type opusStreamer struct {
	stream   *opus.Stream
	channels int
	pcm      []int16
	buffer   [][2]float64
	pos      int
	err      error
}

func decodeOpus(r io.Reader) (beep.StreamSeekCloser, beep.Format, error) {
	br := bufio.NewReader(r)
	channels, err := opusChannels(br)
	if err != nil {
		return nil, beep.Format{}, err
	}
	s, err := opus.NewStream(br)
	if err != nil {
		return nil, beep.Format{}, err
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(spec.SampleRate),
		NumChannels: spec.Channels,
		Precision:   2,
	}
	return &opusStreamer{
		stream:   s,
		channels: channels,
		pcm:      make([]int16, maxOpusFrame*channels),
	}, format, nil
}

// opusChannels reads the channel count from the OpusHead packet on the first
// Ogg page without consuming it.
func opusChannels(br *bufio.Reader) (int, error) {
	page, err := br.Peek(27)
	if err != nil || !bytes.HasPrefix(page, []byte("OggS")) {
		return 0, errNotOpus
	}
	start := 27 + int(page[26])
	page, err = br.Peek(start + 19)
	if err != nil {
		return 0, errNotOpus
	}
	head := page[start:]
	if !bytes.HasPrefix(head, []byte("OpusHead")) {
		return 0, errNotOpus
	}
	channels := int(head[9])
	if channels == 0 {
		return 0, fmt.Errorf("%w: zero channels", errNotOpus)
	}
	return channels, nil
}

func (o *opusStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0

	for filled < len(samples) {
		if len(o.buffer) == 0 {
			n, err := o.stream.Read(o.pcm)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					o.err = err
				}
				break
			}
			if n == 0 {
				break
			}
			o.buffer = int16ToStereo(o.buffer[:0], o.pcm[:n*o.channels], o.channels)
		}

		n := copy(samples[filled:], o.buffer)
		o.buffer = o.buffer[n:]
		filled += n
	}

	o.pos += filled
	return filled, filled > 0
}

func (o *opusStreamer) Err() error { return o.err }

// Len is unknown without reading the whole stream.
func (o *opusStreamer) Len() int { return 0 }

func (o *opusStreamer) Position() int { return o.pos }

func (o *opusStreamer) Seek(p int) error { return errNotSeekable }

func (o *opusStreamer) Close() error { return o.stream.Close() }
