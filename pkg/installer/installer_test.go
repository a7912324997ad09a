package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/portman/pkg/installer/mocks"
	"github.com/glorpus-work/portman/pkg/model"
	"github.com/glorpus-work/portman/pkg/statusdb"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	return Paths{
		InstalledRoot: filepath.Join(root, "installed"),
		BuildtreesDir: filepath.Join(root, "buildtrees"),
		StatusDBPath:  filepath.Join(root, "installed", "status.json"),
	}
}

func installAction(name string, deps ...model.Dependency) model.InstallAction {
	return model.InstallAction{
		Spec: model.PackageSpec{Name: name, Triplet: "x64-linux"},
		Recipe: &model.PortRecipe{
			Name:         name,
			Version:      model.Version{Text: "1.0.0"},
			Dependencies: deps,
		},
		Reason: model.InstallReasonRebuild,
	}
}

// stageFile makes the mock builder behave like a portfile that stages output.
func stageFile(t *testing.T) func(context.Context, model.InstallAction, string, map[string]string) error {
	t.Helper()
	return func(_ context.Context, _ model.InstallAction, stageDir string, _ map[string]string) error {
		if err := os.MkdirAll(stageDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(stageDir, "lib.a"), []byte("built"), 0o644)
	}
}

func noKey(_ model.InstallAction, _ map[string]string) string { return "" }

func TestInstaller_Perform_BuildAndInstall(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(stageFile(t))

	paths := testPaths(t)
	db := statusdb.New()
	inst := &Installer{DB: db, Builder: builder, Paths: paths, Key: noKey}

	plan := &model.ActionPlan{Installs: []model.InstallAction{installAction("zlib")}}
	summary, err := inst.Perform(context.Background(), plan, Options{KeepGoing: false})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, ResultSucceeded, summary.Results[0].Code)
	assert.Zero(t, summary.FailureCount())

	// Tree moved into place.
	built, readErr := os.ReadFile(filepath.Join(paths.InstalledRoot, "x64-linux", "zlib", "lib.a"))
	require.NoError(t, readErr)
	assert.Equal(t, "built", string(built))

	// Status recorded in memory and on disk.
	assert.True(t, db.IsInstalled(model.PackageSpec{Name: "zlib", Triplet: "x64-linux"}))
	reloaded := statusdb.New()
	require.NoError(t, reloaded.Load(paths.StatusDBPath))
	assert.True(t, reloaded.IsInstalled(model.PackageSpec{Name: "zlib", Triplet: "x64-linux"}))
}

func TestInstaller_Perform_Removes(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)

	paths := testPaths(t)
	spec := model.PackageSpec{Name: "zlib", Triplet: "x64-linux"}
	installDir := filepath.Join(paths.InstalledRoot, spec.Triplet, spec.Name)
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "old.a"), []byte("stale"), 0o644))

	db := statusdb.New()
	db.Add(&model.InstalledPort{Name: "zlib", Triplet: "x64-linux", Version: model.Version{Text: "0.9.0"}})

	inst := &Installer{DB: db, Builder: builder, Paths: paths, Key: noKey}
	plan := &model.ActionPlan{Removes: []model.RemoveAction{{Spec: spec, InstalledVersion: model.Version{Text: "0.9.0"}}}}

	_, err := inst.Perform(context.Background(), plan, Options{})
	require.NoError(t, err)

	_, statErr := os.Stat(installDir)
	assert.True(t, os.IsNotExist(statErr), "installed tree deleted")
	assert.False(t, db.IsInstalled(spec))
}

func TestInstaller_Perform_CacheHitSkipsBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl) // no Build expectations: a call fails the test
	cache := mocks.NewMockBinaryCache(ctrl)

	paths := testPaths(t)
	action := installAction("zlib")
	key := "cachedkey"

	cache.EXPECT().Contains(gomock.Any(), key).Return(true)
	cache.EXPECT().Fetch(gomock.Any(), key, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, destDir string) error {
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(destDir, "lib.a"), []byte("restored"), 0o644)
		})

	db := statusdb.New()
	inst := &Installer{
		DB: db, Cache: cache, Builder: builder, Paths: paths,
		Key: func(model.InstallAction, map[string]string) string { return key },
	}

	summary, err := inst.Perform(context.Background(), &model.ActionPlan{Installs: []model.InstallAction{action}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, ResultSucceeded, summary.Results[0].Code)

	restored, readErr := os.ReadFile(filepath.Join(paths.InstalledRoot, "x64-linux", "zlib", "lib.a"))
	require.NoError(t, readErr)
	assert.Equal(t, "restored", string(restored))

	record := db.FindInstalled(action.Spec)
	require.NotNil(t, record)
	assert.Equal(t, key, record.AbiKey)
}

func TestInstaller_Perform_BuildStoresInCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(stageFile(t))
	cache := mocks.NewMockBinaryCache(ctrl)
	cache.EXPECT().Contains(gomock.Any(), "freshkey").Return(false)
	cache.EXPECT().Store(gomock.Any(), "freshkey", gomock.Any()).Return(nil)

	inst := &Installer{
		DB: statusdb.New(), Cache: cache, Builder: builder, Paths: testPaths(t),
		Key: func(model.InstallAction, map[string]string) string { return "freshkey" },
	}

	_, err := inst.Perform(context.Background(), &model.ActionPlan{Installs: []model.InstallAction{installAction("zlib")}}, Options{})
	require.NoError(t, err)
}

func TestInstaller_Perform_KeepGoingCascades(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	// zlib fails; curl depends on zlib and must never be built; openssl
	// is independent and still builds.
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, action model.InstallAction, stageDir string, _ map[string]string) error {
			if action.Spec.Name == "zlib" {
				return fmt.Errorf("compiler exploded")
			}
			return stageFile(t)(nil, action, stageDir, nil)
		}).Times(2)

	db := statusdb.New()
	inst := &Installer{DB: db, Builder: builder, Paths: testPaths(t), Key: noKey}

	plan := &model.ActionPlan{Installs: []model.InstallAction{
		installAction("zlib"),
		installAction("curl", model.Dependency{Name: "zlib"}),
		installAction("openssl"),
	}}

	summary, err := inst.Perform(context.Background(), plan, Options{KeepGoing: true})
	require.NoError(t, err, "keep-going reports failures through the summary")

	require.Len(t, summary.Results, 3)
	assert.Equal(t, ResultBuildFailed, summary.Results[0].Code)
	assert.Equal(t, ResultCascaded, summary.Results[1].Code)
	assert.Equal(t, ResultSucceeded, summary.Results[2].Code)
	assert.Equal(t, 2, summary.FailureCount())

	assert.False(t, db.IsInstalled(model.PackageSpec{Name: "zlib", Triplet: "x64-linux"}))
	assert.False(t, db.IsInstalled(model.PackageSpec{Name: "curl", Triplet: "x64-linux"}))
	assert.True(t, db.IsInstalled(model.PackageSpec{Name: "openssl", Triplet: "x64-linux"}))
}

func TestInstaller_Perform_CascadeChains(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("boom"))

	inst := &Installer{DB: statusdb.New(), Builder: builder, Paths: testPaths(t), Key: noKey}

	// app -> curl -> zlib: the failure at the bottom reaches the top.
	plan := &model.ActionPlan{Installs: []model.InstallAction{
		installAction("zlib"),
		installAction("curl", model.Dependency{Name: "zlib"}),
		installAction("app", model.Dependency{Name: "curl"}),
	}}

	summary, err := inst.Perform(context.Background(), plan, Options{KeepGoing: true})
	require.NoError(t, err)
	assert.Equal(t, ResultBuildFailed, summary.Results[0].Code)
	assert.Equal(t, ResultCascaded, summary.Results[1].Code)
	assert.Equal(t, ResultCascaded, summary.Results[2].Code)
}

func TestInstaller_Perform_NoKeepGoingAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("boom"))

	inst := &Installer{DB: statusdb.New(), Builder: builder, Paths: testPaths(t), Key: noKey}

	plan := &model.ActionPlan{Installs: []model.InstallAction{
		installAction("zlib"),
		installAction("openssl"), // never reached
	}}

	summary, err := inst.Perform(context.Background(), plan, Options{KeepGoing: false})
	require.Error(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, ResultBuildFailed, summary.Results[0].Code)
}

func TestInstaller_Perform_HostDependencyCascade(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockPortBuilder(ctrl)
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("boom"))

	inst := &Installer{DB: statusdb.New(), Builder: builder, Paths: testPaths(t), Key: noKey}

	hostTool := model.InstallAction{
		Spec:   model.PackageSpec{Name: "pkgconf", Triplet: "x64-linux"},
		Recipe: &model.PortRecipe{Name: "pkgconf", Version: model.Version{Text: "2.0.0"}},
	}
	consumer := model.InstallAction{
		Spec: model.PackageSpec{Name: "curl", Triplet: "arm64-osx"},
		Recipe: &model.PortRecipe{
			Name:         "curl",
			Version:      model.Version{Text: "8.4.0"},
			Dependencies: []model.Dependency{{Name: "pkgconf", Host: true}},
		},
	}

	summary, err := inst.Perform(context.Background(),
		&model.ActionPlan{Installs: []model.InstallAction{hostTool, consumer}},
		Options{KeepGoing: true, HostTriplet: "x64-linux"})
	require.NoError(t, err)
	assert.Equal(t, ResultCascaded, summary.Results[1].Code,
		"host dependency failure cascades across triplets")
}

func TestInstaller_Perform_MissingCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("nil database", func(t *testing.T) {
		inst := &Installer{Builder: mocks.NewMockPortBuilder(ctrl)}
		_, err := inst.Perform(context.Background(), &model.ActionPlan{}, Options{})
		require.Error(t, err)
	})

	t.Run("nil builder", func(t *testing.T) {
		inst := &Installer{DB: statusdb.New()}
		_, err := inst.Perform(context.Background(), &model.ActionPlan{}, Options{})
		require.Error(t, err)
	})
}
