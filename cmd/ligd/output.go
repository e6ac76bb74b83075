package main

import (
	"encoding/json"
	"io"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

func jsonEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

// consistencyFromFlag turns the --at flag's value into a
// ConsistencyRequirement: empty means full_consistency, "latest" means
// minimize_latency, anything else is treated as a zookie for
// at_least_as_fresh (the common case: "read what I just wrote").
func consistencyFromFlag(at string) xtypes.ConsistencyRequirement {
	switch at {
	case "":
		return xtypes.ConsistencyRequirement{Kind: xtypes.FullConsistency}
	case "latest":
		return xtypes.ConsistencyRequirement{Kind: xtypes.MinimizeLatency}
	default:
		return xtypes.ConsistencyRequirement{Kind: xtypes.AtLeastAsFresh, Zookie: at}
	}
}
