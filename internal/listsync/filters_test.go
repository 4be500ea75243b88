package listsync

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSet(t *testing.T) {
	fs, err := NewFilterSet(testDecls...)
	require.NoError(t, err)

	require.NoError(t, fs.Set("ticker", "aap"))
	require.NoError(t, fs.Set("state", "   "))
	assert.Equal(t, 1, fs.ActiveCount())

	require.NoError(t, fs.Set("ticker", ""))
	assert.Equal(t, "", fs.Get("ticker"))
	assert.Equal(t, 0, fs.ActiveCount())

	err = fs.Set("nope", "x")
	assert.ErrorIs(t, err, ErrUnknownFilter)

	fs.Clear()
	assert.Empty(t, fs.Raw())
	assert.Len(t, fs.Decls(), len(testDecls))
}

func TestNewFilterSetRejectsBadDecls(t *testing.T) {
	_, err := NewFilterSet(FilterDecl{Key: "a"}, FilterDecl{Key: "a"})
	assert.ErrorIs(t, err, ErrDuplicateFilter)

	_, err = NewFilterSet(FilterDecl{Key: " "})
	assert.Error(t, err)

	_, err = NewFilterSet(FilterDecl{Key: "a", Kind: FilterKind(42)})
	assert.Error(t, err)
}

func TestParseFilterKind(t *testing.T) {
	for k, name := range kindNames {
		got, err := ParseFilterKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.Equal(t, name, k.String())
	}
	_, err := ParseFilterKind("date-range")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(testDecls)

	tests := []struct {
		name    string
		raw     map[string]string
		want    map[string]string
		dropped int
	}{
		{
			name: "strings are trimmed",
			raw:  map[string]string{"ticker": "  aapl ", "state": "FAILED"},
			want: map[string]string{"ticker": "aapl", "state": "FAILED"},
		},
		{
			name: "blank values are omitted",
			raw:  map[string]string{"ticker": "   ", "state": ""},
			want: map[string]string{},
		},
		{
			name: "booleans are canonical",
			raw:  map[string]string{"is_terminal": " TRUE "},
			want: map[string]string{"is_terminal": "true"},
		},
		{
			name:    "invalid boolean is dropped",
			raw:     map[string]string{"is_terminal": "yes"},
			want:    map[string]string{},
			dropped: 1,
		},
		{
			name: "date bounds",
			raw:  map[string]string{"created_after": "2025-01-01", "created_before": "2025-01-31"},
			want: map[string]string{
				"created_after":  "2025-01-01T00:00:00.000Z",
				"created_before": "2025-02-01T00:00:00.000Z",
			},
		},
		{
			name:    "malformed dates are dropped",
			raw:     map[string]string{"created_after": "01/02/2025", "created_before": "2025-02-30"},
			want:    map[string]string{},
			dropped: 2,
		},
		{
			name: "undeclared keys are ignored",
			raw:  map[string]string{"other": "x"},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := n.Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			require.Len(t, dropped, tt.dropped)
			for _, err := range dropped {
				assert.ErrorIs(t, err, ErrValidationDropped)
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve))
			}
		})
	}
}

func TestNormalizeDateIgnoresProcessZone(t *testing.T) {
	saved := time.Local
	t.Cleanup(func() { time.Local = saved })

	zones := []struct {
		loc        *time.Location
		wantAfter  string
		wantBefore string
	}{
		{time.UTC, "2025-01-01T00:00:00.000Z", "2025-01-02T00:00:00.000Z"},
		{time.FixedZone("EST", -5*3600), "2025-01-01T05:00:00.000Z", "2025-01-02T05:00:00.000Z"},
		{time.FixedZone("JST", 9*3600), "2024-12-31T15:00:00.000Z", "2025-01-01T15:00:00.000Z"},
	}
	processZones := []*time.Location{time.UTC, time.FixedZone("A", 13*3600), time.FixedZone("B", -11*3600)}

	for _, z := range zones {
		n := NewNormalizer(testDecls, WithLocation(z.loc))
		for _, pz := range processZones {
			time.Local = pz
			got, dropped := n.Normalize(map[string]string{
				"created_after":  "2025-01-01",
				"created_before": "2025-01-01",
			})
			require.Empty(t, dropped)
			assert.Equal(t, z.wantAfter, got["created_after"], "zone %s, local %s", z.loc, pz)
			assert.Equal(t, z.wantBefore, got["created_before"], "zone %s, local %s", z.loc, pz)
		}
	}
}
