package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/portman/pkg/errors"
)

func TestParsePackageSpec(t *testing.T) {
	tests := []struct {
		name           string
		arg            string
		defaultTriplet string
		want           PackageSpec
		wantErr        error
	}{
		{
			name: "explicit triplet",
			arg:  "zlib:x64-linux",
			want: PackageSpec{Name: "zlib", Triplet: "x64-linux"},
		},
		{
			name:           "default triplet",
			arg:            "zlib",
			defaultTriplet: "arm64-osx",
			want:           PackageSpec{Name: "zlib", Triplet: "arm64-osx"},
		},
		{
			name:           "explicit triplet overrides default",
			arg:            "curl:x86-windows",
			defaultTriplet: "x64-linux",
			want:           PackageSpec{Name: "curl", Triplet: "x86-windows"},
		},
		{
			name:    "no triplet and no default",
			arg:     "zlib",
			wantErr: errors.ErrInvalidTriplet,
		},
		{
			name:           "empty name",
			arg:            ":x64-linux",
			defaultTriplet: "x64-linux",
			wantErr:        errors.ErrInvalidSpec,
		},
		{
			name:           "uppercase name rejected",
			arg:            "Zlib:x64-linux",
			defaultTriplet: "x64-linux",
			wantErr:        errors.ErrInvalidSpec,
		},
		{
			name:           "extra colon rejected",
			arg:            "zlib:x64-linux:foo",
			defaultTriplet: "x64-linux",
			wantErr:        errors.ErrInvalidSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePackageSpec(tt.arg, tt.defaultTriplet)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackageSpec_String(t *testing.T) {
	spec := PackageSpec{Name: "openssl", Triplet: "x64-linux"}
	assert.Equal(t, "openssl:x64-linux", spec.String())
}

func TestPackageSpec_Compare(t *testing.T) {
	a := PackageSpec{Name: "curl", Triplet: "x64-linux"}
	b := PackageSpec{Name: "zlib", Triplet: "arm64-osx"}
	c := PackageSpec{Name: "zlib", Triplet: "x64-linux"}

	assert.Negative(t, a.Compare(b), "name orders before triplet")
	assert.Positive(t, b.Compare(a))
	assert.Negative(t, b.Compare(c), "same name falls back to triplet order")
	assert.Zero(t, c.Compare(c))
}

func TestVersion_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Version
		want bool
	}{
		{"identical", Version{Text: "1.2.3"}, Version{Text: "1.2.3"}, true},
		{"identical with port revision", Version{Text: "1.2.3", Port: 2}, Version{Text: "1.2.3", Port: 2}, true},
		{"different text", Version{Text: "1.2.3"}, Version{Text: "1.2.4"}, false},
		{"different port revision", Version{Text: "1.2.3", Port: 1}, Version{Text: "1.2.3", Port: 2}, false},
		{"downgrade still differs", Version{Text: "2.0.0"}, Version{Text: "1.0.0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "1.2.3", Version{Text: "1.2.3"}.String())
	assert.Equal(t, "1.2.3#4", Version{Text: "1.2.3", Port: 4}.String())
}

func TestOutdatedEntry_VersionDiff(t *testing.T) {
	entry := OutdatedEntry{
		InstalledVersion: Version{Text: "1.2.11"},
		RecipeVersion:    Version{Text: "1.2.13", Port: 1},
	}
	assert.Equal(t, "1.2.11 -> 1.2.13#1", entry.VersionDiff())
}
