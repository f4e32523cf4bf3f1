package index

import (
	"github.com/stretchr/testify/require"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `# start_ip,end_ip,country_code
1.0.0.0,1.0.0.255,au

8.8.8.0, 8.8.8.255, US
81.0.0.0,81.255.255.255,FR
2001:db8::,2001:db8::ffff,DE
`

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Path: filepath.Join(t.TempDir(), "geo", "geo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReadRanges(t *testing.T) {
	t.Parallel()

	ranges, err := ReadRanges(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, ranges, 4)
	require.Equal(t, "AU", ranges[0].Country)
	require.Equal(t, "8.8.8.255", ranges[1].End.String())
}

func TestReadRanges_RejectsBadRows(t *testing.T) {
	t.Parallel()

	bad := []string{
		"1.0.0.0,1.0.0.255\n",
		"x,1.0.0.255,AU\n",
		"1.0.0.9,1.0.0.1,AU\n",
		"1.0.0.0,1.0.0.255,AUS\n",
		"1.0.0.0,2001:db8::1,AU\n",
	}
	for _, row := range bad {
		_, err := ReadRanges(strings.NewReader(row))
		require.ErrorIs(t, err, ErrBadRange, row)
	}
}

func TestResolveCountry(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	ranges, err := ReadRanges(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, s.Rebuild(ranges))

	cases := map[string]string{
		"1.0.0.0":         "AU",
		"1.0.0.128":       "AU",
		"8.8.8.8":         "US",
		"81.2.3.4":        "FR",
		"::ffff:81.2.3.4": "FR",
		"2001:db8::42":    "DE",
	}
	for ip, want := range cases {
		got, ok := s.ResolveCountry(ip)
		require.True(t, ok, ip)
		require.Equal(t, want, got, ip)
	}

	for _, ip := range []string{"1.0.1.0", "0.0.0.1", "200.1.1.1", "2001:db9::1", "garbage", ""} {
		_, ok := s.ResolveCountry(ip)
		require.False(t, ok, ip)
	}
}

func TestRebuild_ReplacesTable(t *testing.T) {
	t.Parallel()

	s := openTemp(t)

	_, ok := s.ResolveCountry("8.8.8.8")
	require.False(t, ok)

	first, err := ReadRanges(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, s.Rebuild(first))

	second, err := ReadRanges(strings.NewReader("9.9.9.0,9.9.9.255,CH\n"))
	require.NoError(t, err)
	require.NoError(t, s.Rebuild(second))

	_, ok = s.ResolveCountry("8.8.8.8")
	require.False(t, ok)
	cc, ok := s.ResolveCountry("9.9.9.9")
	require.True(t, ok)
	require.Equal(t, "CH", cc)

	st, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, st.Ranges)
	require.False(t, st.ImportedAt.IsZero())
}

func TestRebuild_RejectsOverlap(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	ranges, err := ReadRanges(strings.NewReader("1.0.0.0,1.0.0.255,AU\n1.0.0.128,1.0.1.0,NZ\n"))
	require.NoError(t, err)
	require.ErrorIs(t, s.Rebuild(ranges), ErrBadRange)
}
