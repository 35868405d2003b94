// Package model defines the playable item record shared by the index, the
// list adapter and the controller. Songs are rebuilt from the index on every
// scan; only IsPlaying changes afterwards.
package model
