package run

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/PhotoRenamer/internal/app"
	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/infra/exifx"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// requireCaseSensitive 在大小写不敏感的文件系统上跳过（a.JPG 与 a.jpg 是同一个文件）。
func requireCaseSensitive(t *testing.T, dir string) {
	t.Helper()
	marker := filepath.Join(dir, ".CaseCheck")
	write(t, marker, "")
	defer os.Remove(marker)
	if exists(filepath.Join(dir, ".casecheck")) {
		t.Skip("文件系统大小写不敏感")
	}
}

func load(t *testing.T, cli config.CLIArgs) config.EffectiveConfig {
	t.Helper()
	eff, err := config.LoadEffective(cli.Source, cli)
	require.NoError(t, err)
	return eff
}

func mode(t *testing.T, eff config.EffectiveConfig, r exifx.Reader) app.Mode {
	t.Helper()
	m, err := app.BuildMode(eff, r)
	require.NoError(t, err)
	return m
}

func TestExecute_LowerCase(t *testing.T) {
	src := t.TempDir()
	requireCaseSensitive(t, src)
	write(t, filepath.Join(src, "a.JPG"), "a")
	write(t, filepath.Join(src, "b.jpg"), "b")

	eff := load(t, config.CLIArgs{Command: config.CmdLower, Source: src})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	assert.True(t, exists(filepath.Join(src, "a.jpg")))
	assert.False(t, exists(filepath.Join(src, "a.JPG")))
	assert.True(t, exists(filepath.Join(src, "b.jpg")))
	assert.Equal(t, 1, rr.Summary.Files)
	assert.Equal(t, 1, rr.Summary.Transferred)
	assert.Equal(t, 0, rr.Summary.Duplicates)
}

func TestExecute_LowerCase_ExistingTargetGetsSuffix(t *testing.T) {
	src := t.TempDir()
	requireCaseSensitive(t, src)
	write(t, filepath.Join(src, "a.JPG"), "upper")
	write(t, filepath.Join(src, "a.jpg"), "lower")

	eff := load(t, config.CLIArgs{Command: config.CmdLower, Source: src})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	b, err := os.ReadFile(filepath.Join(src, "a-duplicate-001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "upper", string(b))
	b, err = os.ReadFile(filepath.Join(src, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "lower", string(b), "已有文件不能被覆盖")
	assert.Equal(t, 1, rr.Summary.Duplicates)
}

type fakeExif map[string]exifx.Capture

func (f fakeExif) ReadCapture(path string) (exifx.Capture, error) {
	if c, ok := f[path]; ok {
		return c, nil
	}
	return exifx.Capture{}, exifx.ErrNoDate
}

func TestExecute_ExifDate_LivePhotoSiblings(t *testing.T) {
	src := t.TempDir()
	heic := filepath.Join(src, "IMG_1.HEIC")
	mov := filepath.Join(src, "IMG_1.MOV")
	write(t, heic, "image")
	write(t, mov, "video")
	write(t, filepath.Join(src, "notes.txt"), "no exif")

	r := fakeExif{heic: {DateTimeOriginal: "2024:05:01 10:00:00"}}
	eff := load(t, config.CLIArgs{Command: config.CmdExifDate, Source: src})
	rr := Execute(eff, mode(t, eff, r))

	require.True(t, rr.OK(), "report=%+v", rr)
	assert.True(t, exists(filepath.Join(src, "2024-05-01_10-00-00.HEIC")))
	assert.True(t, exists(filepath.Join(src, "2024-05-01_10-00-00.MOV")))
	assert.True(t, exists(filepath.Join(src, "notes.txt")), "没有拍摄时间的文件保持不动")
	assert.Equal(t, 0, rr.Summary.Duplicates)
	assert.Equal(t, 2, rr.Summary.Transferred)
}

func TestExecute_Hash_HolderKeepsName(t *testing.T) {
	src := t.TempDir()
	write(t, filepath.Join(src, "a", "x.jpg"), "same")
	write(t, filepath.Join(src, "b", "y.jpg"), "same")

	eff := load(t, config.CLIArgs{Command: config.CmdHash, Source: src})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	assert.True(t, exists(filepath.Join(src, "a", "x.jpg")))
	assert.True(t, exists(filepath.Join(src, "b", "x-duplicate-001.jpg")))
	assert.False(t, exists(filepath.Join(src, "b", "y.jpg")))
	require.Len(t, rr.Items, 1)
	assert.True(t, rr.Items[0].Duplicate)

	// 重跑：没有任何新的移动。
	rr = Execute(eff, mode(t, eff, nil))
	require.True(t, rr.OK())
	assert.Empty(t, rr.Items)
}

func TestExecute_DryRunCopyTouchesNothing(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	write(t, filepath.Join(src, "20-01-02 03-04-05.jpg"), "x")
	write(t, filepath.Join(src, "holiday.jpg"), "y")

	eff := load(t, config.CLIArgs{
		Command: config.CmdDatePattern,
		Source:  src,
		Target:  dst,
		DryRun:  true,
		Copy:    true, CopySet: true,
	})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	require.Len(t, rr.Items, 1)
	assert.Equal(t, domain.FileStatusPlanned, rr.Items[0].Status)
	assert.Equal(t, filepath.Join(dst, "2020-01-02_03-04-05.jpg"), rr.Items[0].Dst)
	assert.False(t, exists(dst), "dry-run 不应创建目标目录")
	assert.True(t, exists(filepath.Join(src, "20-01-02 03-04-05.jpg")))
}

func TestExecute_CopyToTargetKeepsRelativeDirs(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	write(t, filepath.Join(src, "2024", "trip.jpeg"), "x")

	eff := load(t, config.CLIArgs{Command: config.CmdPattern, Source: src, Target: dst, Copy: true, CopySet: true})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	assert.True(t, exists(filepath.Join(dst, "2024", "trip.jpg")))
	assert.True(t, exists(filepath.Join(src, "2024", "trip.jpeg")), "复制不应删除源文件")
}

func TestExecute_SkipDuplicates(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	write(t, filepath.Join(src, "a", "x.jpg"), "same")
	write(t, filepath.Join(src, "b", "x.jpg"), "same")

	eff := load(t, config.CLIArgs{
		Command:           config.CmdHash,
		Source:            src,
		Target:            dst,
		Copy:              true,
		CopySet:           true,
		SkipDuplicates:    true,
		SkipDuplicatesSet: true,
	})
	rr := Execute(eff, mode(t, eff, nil))

	require.True(t, rr.OK(), "report=%+v", rr)
	assert.True(t, exists(filepath.Join(dst, "a", "x.jpg")))
	assert.False(t, exists(filepath.Join(dst, "b", "x-duplicate-001.jpg")))
	assert.Equal(t, 1, rr.Summary.Skipped)
	assert.Equal(t, 1, rr.Summary.Duplicates, "跳过的重复文件仍计入 possible duplicates")
}

func TestExecute_FatalErrorStopsPass(t *testing.T) {
	src := t.TempDir()
	requireCaseSensitive(t, src)
	write(t, filepath.Join(src, "A.JPG"), "a")
	write(t, filepath.Join(src, "B.JPG"), "b")

	old := moveFunc
	moveFunc = func(string, string) error { return errors.New("disk on fire") }
	defer func() { moveFunc = old }()

	eff := load(t, config.CLIArgs{Command: config.CmdLower, Source: src})
	rr := Execute(eff, mode(t, eff, nil))

	assert.False(t, rr.OK())
	assert.Equal(t, domain.ErrCodeTransferFailed, rr.ErrorCode)
	require.Len(t, rr.Items, 2)
	assert.Equal(t, domain.FileStatusFailed, rr.Items[0].Status)
	assert.Equal(t, domain.FileStatusPending, rr.Items[1].Status)
	assert.True(t, strings.Contains(rr.Items[0].ErrorMsg, "disk on fire"))
	assert.True(t, exists(filepath.Join(src, "B.JPG")))
}

func TestExecute_FatalErrorAfterPartialTransfer(t *testing.T) {
	src := t.TempDir()
	write(t, filepath.Join(src, "a.jpeg"), "a")
	write(t, filepath.Join(src, "b.jpeg"), "b")
	write(t, filepath.Join(src, "c.jpeg"), "c")

	old := moveFunc
	calls := 0
	moveFunc = func(from, to string) error {
		calls++
		if calls == 1 {
			return old(from, to)
		}
		return errors.New("disk full")
	}
	defer func() { moveFunc = old }()

	eff := load(t, config.CLIArgs{Command: config.CmdPattern, Source: src})
	rr := Execute(eff, mode(t, eff, nil))

	assert.False(t, rr.OK())
	assert.Equal(t, 2, calls, "第一个失败之后不再尝试")
	require.Len(t, rr.Items, 3)

	assert.Equal(t, domain.FileStatusTransferred, rr.Items[0].Status)
	assert.True(t, exists(rr.Items[0].Dst))
	assert.False(t, exists(rr.Items[0].Src))

	assert.Equal(t, domain.FileStatusFailed, rr.Items[1].Status)
	assert.Equal(t, domain.ErrCodeTransferFailed, rr.Items[1].ErrorCode)
	assert.True(t, exists(rr.Items[1].Src))

	assert.Equal(t, domain.FileStatusPending, rr.Items[2].Status)
	assert.True(t, exists(rr.Items[2].Src))

	assert.Equal(t, 1, rr.Summary.Transferred)
	assert.Equal(t, 1, rr.Summary.Failed)
}

func TestExecute_TargetDirIsFileIsFatal(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	write(t, filepath.Join(src, "sub", "x.jpg"), "x")
	// 目标目录中与子目录同名的普通文件：无法创建目录。
	write(t, filepath.Join(dst, "sub"), "blocker")

	eff := load(t, config.CLIArgs{Command: config.CmdHash, Source: src, Target: dst})
	rr := Execute(eff, mode(t, eff, nil))

	assert.Equal(t, domain.ErrCodeDirNotCreated, rr.ErrorCode)
	assert.True(t, exists(filepath.Join(src, "sub", "x.jpg")))
}

func TestExecute_ScanFailure(t *testing.T) {
	src := t.TempDir()
	eff := load(t, config.CLIArgs{Command: config.CmdHash, Source: src})
	require.NoError(t, os.RemoveAll(src))

	rr := Execute(eff, mode(t, eff, nil))
	assert.Equal(t, domain.ErrCodeScanFailed, rr.ErrorCode)
	assert.False(t, rr.OK())
}

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	skips      []string
	files      []domain.FileResult
}

func (o *recordObserver) OnStart(config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnProgress(string, int, int) {}

func (o *recordObserver) OnPhaseDone(name string, _ map[string]any, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnSkip(f domain.File, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skips = append(o.skips, f.Name())
}

func (o *recordObserver) OnFileDone(_, _ int, res domain.FileResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, res)
}

func TestExecuteWithObserver_EmitsPhaseAndFileEvents(t *testing.T) {
	src := t.TempDir()
	img := filepath.Join(src, "IMG_1.jpg")
	write(t, img, "x")
	write(t, filepath.Join(src, "plain.png"), "y")

	r := fakeExif{img: {DateTimeOriginal: "2024:05:01 10:00:00"}}
	eff := load(t, config.CLIArgs{Command: config.CmdExifDate, Source: src, DryRun: true})

	obs := &recordObserver{}
	rr := ExecuteWithObserver(eff, mode(t, eff, r), obs)

	require.True(t, rr.OK())
	assert.Equal(t, 1, obs.startCalls)
	assert.Equal(t, []string{"scan", "group", "plan", "transfer"}, obs.phases)
	assert.Equal(t, []string{"plain.png"}, obs.skips)
	require.Len(t, obs.files, 1)
	assert.Equal(t, domain.FileStatusPlanned, obs.files[0].Status)
}

func TestExecuteWithObserver_NilObserver_SameResultAsExecute(t *testing.T) {
	src := t.TempDir()
	write(t, filepath.Join(src, "a.jpeg"), "x")

	eff := load(t, config.CLIArgs{Command: config.CmdPattern, Source: src, DryRun: true})
	m := mode(t, eff, nil)

	a := Execute(eff, m)
	b := ExecuteWithObserver(eff, m, &recordObserver{})

	// 时间字段本身允许有微小差异；对比时归零。
	a.StartedAt, a.FinishedAt = time.Time{}, time.Time{}
	b.StartedAt, b.FinishedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestExecute_ConfigFileIsNotRenamed(t *testing.T) {
	src := t.TempDir()
	write(t, filepath.Join(src, config.FileName), `{"log_level":"debug"}`)
	write(t, filepath.Join(src, "a.jpg"), "abc")

	eff := load(t, config.CLIArgs{Command: config.CmdFilesize, Source: src})
	require.Equal(t, filepath.Join(src, config.FileName), eff.ConfigFile)

	rr := Execute(eff, mode(t, eff, nil))
	require.True(t, rr.OK(), "report=%+v", rr)
	assert.Equal(t, 1, rr.Summary.Files)
	assert.True(t, exists(filepath.Join(src, config.FileName)))
	assert.True(t, exists(filepath.Join(src, "a-000000003.jpg")))
}
