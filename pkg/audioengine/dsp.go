package audioengine

// int16ToStereo appends interleaved PCM with the given channel count to dst
// as beep frames. Mono is copied to both sides; wider layouts keep only the
// front left and right channels.
func int16ToStereo(dst [][2]float64, pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		return dst
	}
	l, r := frontPair(channels)
	for i := 0; i+channels <= len(pcm); i += channels {
		dst = append(dst, [2]float64{
			float64(pcm[i+l]) / 32768.0,
			float64(pcm[i+r]) / 32768.0,
		})
	}
	return dst
}

// frontPair picks the front left and right channels in Vorbis channel order,
// which Ogg Opus uses for up to eight channels.
func frontPair(channels int) (int, int) {
	switch channels {
	case 1:
		return 0, 0
	case 3, 5, 6, 7, 8:
		return 0, 2
	}
	return 0, 1
}

// mono folds a stereo frame into one sample.
func mono(s [2]float64) float64 {
	return (s[0] + s[1]) / 2
}
