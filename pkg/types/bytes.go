package types

import "fmt"

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

// FromKiB converts a kibibyte count, as reported by /proc, into Bytes.
func FromKiB(kib uint64) Bytes { return Bytes(kib * 1024) }

// Humanized returns a human-readable string with automatic unit (B, KiB, MiB, GiB, TiB).
func (b Bytes) Humanized() string {
	v := float64(b)
	switch {
	case b >= 1<<40:
		return fmt.Sprintf("%.2f TiB", v/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GiB", v/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MiB", v/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KiB", v/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// MiB returns the size in mebibytes.
func (b Bytes) MiB() float64 { return float64(b) / (1024 * 1024) }

// Sub returns b-o, or zero when o exceeds b.
func (b Bytes) Sub(o Bytes) Bytes {
	if o >= b {
		return 0
	}
	return b - o
}
