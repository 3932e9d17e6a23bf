package config

import "time"

// Settings groups the proxy-facing tunables spec §4.2 and §6 name as
// configuration-collaborator concerns: the origin to reverse-proxy to,
// whether to cloak its Server header, and the three independent phase
// deadlines. Modeled after the teacher's own config.Config (a plain struct
// the embedder populates, never constructed field-by-field outside a
// constructor) but narrowed to plain durations/bools, since nothing here
// calls for the Default/Maximal pairs Config groups its parser buffers by.
type Settings struct {
	// Origin is the proxy.reverse target: "unix:<path>" or "<host>[:<port>]".
	Origin string
	// Cloak suppresses the origin's Server response header when true
	// (proxy.cloak).
	Cloak bool

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultSettings returns conservative proxy timeouts; Origin is left
// empty, since it has no sensible default — the embedder must set it.
func DefaultSettings() Settings {
	return Settings{
		Cloak:          true,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
}
