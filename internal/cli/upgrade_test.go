package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
	"github.com/glorpus-work/portman/pkg/statusdb"
)

func TestDetermineKeepGoing(t *testing.T) {
	tests := []struct {
		name        string
		keepGoing   bool
		noKeepGoing bool
		want        bool
		wantErr     error
	}{
		{name: "default keeps going", want: true},
		{name: "explicit keep-going", keepGoing: true, want: true},
		{name: "explicit no-keep-going", noKeepGoing: true, want: false},
		{name: "both flags conflict", keepGoing: true, noKeepGoing: true, wantErr: errors.ErrBothKeepGoingFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := determineKeepGoing(tt.keepGoing, tt.noKeepGoing)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakeProvider serves recipes from a map for classification tests.
type fakeProvider struct {
	recipes map[string]*model.PortRecipe
}

func (p *fakeProvider) GetControlFile(name string) (*model.PortRecipe, error) {
	recipe, ok := p.recipes[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrPortNotFound, "port %s", name)
	}
	if recipe == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRecipe, "port %s", name)
	}
	return recipe, nil
}

func classifierFixture() (*statusdb.Database, *fakeProvider) {
	db := statusdb.New()
	db.Add(&model.InstalledPort{Name: "zlib", Triplet: "x64-linux", Version: model.Version{Text: "1.2.11"}})
	db.Add(&model.InstalledPort{Name: "curl", Triplet: "x64-linux", Version: model.Version{Text: "8.4.0"}})
	db.Add(&model.InstalledPort{Name: "legacy", Triplet: "x64-linux", Version: model.Version{Text: "1.0.0"}})
	db.Add(&model.InstalledPort{Name: "broken", Triplet: "x64-linux", Version: model.Version{Text: "1.0.0"}})

	provider := &fakeProvider{recipes: map[string]*model.PortRecipe{
		"zlib":   {Name: "zlib", Version: model.Version{Text: "1.2.13"}},
		"curl":   {Name: "curl", Version: model.Version{Text: "8.4.0"}},
		"broken": nil, // unparseable recipe
		// "legacy" has no recipe at all; "new" is not installed
		"new": {Name: "new", Version: model.Version{Text: "1.0.0"}},
	}}
	return db, provider
}

func sp(name string) model.PackageSpec {
	return model.PackageSpec{Name: name, Triplet: "x64-linux"}
}

func TestClassifySpecs(t *testing.T) {
	db, provider := classifierFixture()

	t.Run("partition", func(t *testing.T) {
		buckets := classifySpecs([]model.PackageSpec{sp("zlib"), sp("curl"), sp("legacy"), sp("new")}, db, provider)

		assert.Equal(t, []model.PackageSpec{sp("zlib")}, buckets.ToUpgrade)
		assert.Equal(t, []model.PackageSpec{sp("curl")}, buckets.UpToDate)
		assert.Equal(t, []model.PackageSpec{sp("legacy")}, buckets.NoRecipe)
		assert.Equal(t, []model.PackageSpec{sp("new")}, buckets.NotInstalled)
	})

	t.Run("invalid recipe counts as missing", func(t *testing.T) {
		buckets := classifySpecs([]model.PackageSpec{sp("broken")}, db, provider)
		assert.Equal(t, []model.PackageSpec{sp("broken")}, buckets.NoRecipe)
		assert.Empty(t, buckets.ToUpgrade)
	})

	t.Run("not installed and recipe-less lands in both buckets", func(t *testing.T) {
		buckets := classifySpecs([]model.PackageSpec{sp("phantom")}, db, provider)
		assert.Equal(t, []model.PackageSpec{sp("phantom")}, buckets.NotInstalled)
		assert.Equal(t, []model.PackageSpec{sp("phantom")}, buckets.NoRecipe)
	})

	t.Run("buckets are sorted regardless of input order", func(t *testing.T) {
		db2 := statusdb.New()
		provider2 := &fakeProvider{recipes: map[string]*model.PortRecipe{}}
		buckets := classifySpecs([]model.PackageSpec{sp("zzz"), sp("aaa"), sp("mmm")}, db2, provider2)
		assert.Equal(t, []model.PackageSpec{sp("aaa"), sp("mmm"), sp("zzz")}, buckets.NotInstalled)
	})
}

func TestParseSpecsHelper(t *testing.T) {
	specs, err := parseSpecs([]string{"zlib", "curl:arm64-osx"}, "x64-linux")
	require.NoError(t, err)
	assert.Equal(t, []model.PackageSpec{sp("zlib"), {Name: "curl", Triplet: "arm64-osx"}}, specs)

	_, err = parseSpecs([]string{"Bad:Name"}, "x64-linux")
	require.Error(t, err)
}

func TestInstallReason(t *testing.T) {
	action := model.InstallAction{Reason: model.InstallReasonDependent, DependentOf: "zlib"}
	assert.Equal(t, "dependent of zlib", installReason(action))

	action = model.InstallAction{Reason: model.InstallReasonDependency, DependentOf: "curl"}
	assert.Equal(t, "dependency of curl", installReason(action))

	assert.Equal(t, "requested", installReason(model.InstallAction{Reason: model.InstallReasonRequested}))
	assert.Equal(t, "rebuild", installReason(model.InstallAction{Reason: model.InstallReasonRebuild}))
}
