// Package codec turns audio samples and embedded pictures into things the
// screen and the remote can show: spectrum bands, a level meter and square
// artwork thumbnails.
package codec
