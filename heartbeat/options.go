package heartbeat

import "time"

type Option func(*Prober)

func WithProbeInterval(t time.Duration) Option {
	return func(p *Prober) {
		p.interval = t
	}
}

func WithProbeTimeouts(connect, read time.Duration) Option {
	return func(p *Prober) {
		p.probe = NewProbe(connect, read)
	}
}

// WithProbeFunc replaces the TCP probe, mostly for testing.
func WithProbeFunc(f ProbeFunc) Option {
	return func(p *Prober) {
		p.probe = f
	}
}
