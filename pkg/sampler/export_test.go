//go:build linux

package sampler

func (s *Sampler) History() map[int]uint64 { return s.history() }
