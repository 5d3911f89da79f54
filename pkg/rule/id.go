package rule

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// AssignIDs fills in ids for rules without an explicit one and reports
// duplicate explicit ids, one error per repeated occurrence.
//
// A generated id is the condition's outcome name. When that name is taken,
// a short hash of the function and its arguments is appended, then an
// ordinal if still needed, so ids depend only on the rule set.
func AssignIDs(bound []Bound) []core.ValidationError {
	var errs []core.ValidationError

	taken := make(map[string]bool, len(bound))
	for i := range bound {
		b := &bound[i]
		if !b.Explicit {
			continue
		}
		if taken[b.ID] {
			errs = append(errs, core.ValidationError{
				Index:   b.Index,
				RuleID:  b.ID,
				Field:   "name",
				Message: fmt.Sprintf("duplicate rule id %q", b.ID),
			})
			continue
		}
		taken[b.ID] = true
	}

	for i := range bound {
		b := &bound[i]
		if b.Explicit {
			continue
		}
		id := b.Condition.Name
		if taken[id] {
			id = id + "_" + fingerprint(b)
		}
		for n := 2; taken[id]; n++ {
			id = b.Condition.Name + "_" + fingerprint(b) + "_" + strconv.Itoa(n)
		}
		b.ID = id
		taken[id] = true
	}
	return errs
}

// fingerprint is 8 hex digits of an FNV-1a hash over the function name and
// its canonical (key-sorted) JSON arguments.
func fingerprint(b *Bound) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(b.Function))
	_, _ = h.Write([]byte{0})
	data, err := json.Marshal(map[string]any(b.Args))
	if err != nil {
		data = fmt.Appendf(nil, "%v", b.Args)
	}
	_, _ = h.Write(data)
	return fmt.Sprintf("%08x", h.Sum32())
}
