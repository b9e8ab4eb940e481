package results

import (
	"fmt"
	"strconv"
	"strings"
)

// splitSerial cuts a lookup id into its alphanumeric prefix and the
// trailing decimal serial, e.g. "1JJ23CS001" -> ("1JJ23CS", "001").
func splitSerial(id string) (prefix, serial string) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	return id[:i], id[i:]
}

// ExpandRange enumerates the lookup ids from start to end inclusive.
// Both ids must share a prefix and differ only in the trailing serial;
// the serial keeps the zero-padding of the start id.
func ExpandRange(start, end string) ([]string, error) {
	startPrefix, startSerial := splitSerial(start)
	endPrefix, endSerial := splitSerial(end)

	if startSerial == "" || endSerial == "" {
		return nil, fmt.Errorf("lookup ids must end in a decimal serial: %q, %q", start, end)
	}
	if !strings.EqualFold(startPrefix, endPrefix) {
		return nil, fmt.Errorf("lookup id prefixes differ: %q vs %q", startPrefix, endPrefix)
	}

	from, err := strconv.Atoi(startSerial)
	if err != nil {
		return nil, fmt.Errorf("parse serial of %q: %w", start, err)
	}
	to, err := strconv.Atoi(endSerial)
	if err != nil {
		return nil, fmt.Errorf("parse serial of %q: %w", end, err)
	}
	if to < from {
		return nil, fmt.Errorf("range is backwards: %d > %d", from, to)
	}

	ids := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		ids = append(ids, fmt.Sprintf("%s%0*d", startPrefix, len(startSerial), n))
	}
	return ids, nil
}
