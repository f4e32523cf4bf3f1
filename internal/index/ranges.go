package index

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"sort"
	"strings"
)

var ErrBadRange = errors.New("bad range")

type Range struct {
	Start   netip.Addr
	End     netip.Addr
	Country string
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s %s", r.Start, r.End, r.Country)
}

// ReadRanges reads "start_ip,end_ip,country_code" rows. Lines starting with
// '#' and blank lines are skipped.
func ReadRanges(r io.Reader) ([]Range, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var out []Range
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRange, err)
		}
		line, _ := cr.FieldPos(0)

		rg, err := parseRange(rec[0], rec[1], rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRange, line, err)
		}
		out = append(out, rg)
	}
	return out, nil
}

func parseRange(start, end, country string) (Range, error) {
	s, err := parseAddr(start)
	if err != nil {
		return Range{}, err
	}
	e, err := parseAddr(end)
	if err != nil {
		return Range{}, err
	}
	if s.Is4() != e.Is4() {
		return Range{}, fmt.Errorf("mixed address families %s and %s", s, e)
	}
	if e.Less(s) {
		return Range{}, fmt.Errorf("end %s before start %s", e, s)
	}
	cc := strings.ToUpper(strings.TrimSpace(country))
	if len(cc) != 2 || !isLetters(cc) {
		return Range{}, fmt.Errorf("country %q is not a two-letter code", country)
	}
	return Range{Start: s, End: e, Country: cc}, nil
}

func parseAddr(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	return a.WithZone("").Unmap(), nil
}

func isLetters(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// sortRanges orders by start address and rejects overlaps.
func sortRanges(ranges []Range) error {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start.Less(ranges[j].Start)
	})
	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		if prev.Start.Is4() != cur.Start.Is4() {
			continue
		}
		if !prev.End.Less(cur.Start) {
			return fmt.Errorf("%w: %s overlaps %s", ErrBadRange, prev, cur)
		}
	}
	return nil
}
