package allocation

import "fmt"

// Percent is a share expressed in percent (0.25 share is 25 Percent).
type Percent float64

// PercentOf converts a share in [0,1] into a Percent.
func PercentOf(share float64) Percent { return Percent(share * 100) }

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}
