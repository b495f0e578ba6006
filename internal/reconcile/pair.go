package reconcile

import (
	"fmt"
	"strings"

	"shelfsync/internal/catalog"
)

// Pair names the driving store A and the target store B.
type Pair struct {
	A catalog.Store `json:"a"`
	B catalog.Store `json:"b"`
}

// Supported pairs in report order.
var (
	LocalRemote  = Pair{A: catalog.StoreLocal, B: catalog.StoreRemote}
	LocalLedger  = Pair{A: catalog.StoreLocal, B: catalog.StoreLedger}
	RemoteLedger = Pair{A: catalog.StoreRemote, B: catalog.StoreLedger}
)

// Pairs lists every supported pair.
func Pairs() []Pair {
	return []Pair{LocalRemote, LocalLedger, RemoteLedger}
}

func (p Pair) String() string {
	return string(p.A) + ":" + string(p.B)
}

// ParsePair parses "a:b" into a supported pair.
func ParsePair(value string) (Pair, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Pair{}, fmt.Errorf("pair %q must look like local:remote", value)
	}
	a, err := catalog.ParseStore(left)
	if err != nil {
		return Pair{}, err
	}
	b, err := catalog.ParseStore(right)
	if err != nil {
		return Pair{}, err
	}
	p := Pair{A: a, B: b}
	for _, known := range Pairs() {
		if p == known {
			return p, nil
		}
	}
	return Pair{}, fmt.Errorf("unsupported pair %q (supported: local:remote, local:ledger, remote:ledger)", value)
}
