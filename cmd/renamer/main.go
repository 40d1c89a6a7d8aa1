package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/John-Robertt/PhotoRenamer/internal/app"
	"github.com/John-Robertt/PhotoRenamer/internal/app/run"
	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/logging"
	"github.com/John-Robertt/PhotoRenamer/internal/naming"
)

var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli 保存一次进程调用的输入输出流与全局参数。
// cobra 只用于参数解析：RunE 不返回运行期错误，运行结果通过 exit 传出。
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	exit int

	configPath     string
	dryRun         bool
	yes            bool
	copyFiles      bool
	skipDuplicates bool
	verbose        bool
	quiet          bool
	logJSON        bool
}

// execute 返回进程退出码：0 成功，1 运行失败，2 用法错误。
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n", err)
		fmt.Fprintln(stderr, `使用 "renamer <命令> --help" 查看详细说明。`)
		return 2
	}
	return c.exit
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "renamer",
		Short:         "批量重命名照片与其他文件，并为重复目标追加 -duplicate-NNN 后缀",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.dryRun, "dry-run", "d", false, "只规划不执行：不移动、不复制、不创建目录")
	pf.BoolVarP(&c.copyFiles, "copy", "c", false, "复制而不是移动（需要目标目录）")
	pf.BoolVarP(&c.skipDuplicates, "skip-duplicates", "s", false, "跳过带 -duplicate-NNN 后缀的文件，保持其留在源目录（需要目标目录）")
	pf.BoolVarP(&c.yes, "yes", "y", false, "跳过确认提示")
	pf.StringVar(&c.configPath, "config", "", "配置文件路径（默认读取 <source>/"+config.FileName+"）")
	pf.BoolVar(&c.verbose, "verbose", false, "输出 debug 日志")
	pf.BoolVar(&c.quiet, "quiet", false, "只输出 warn 及以上日志")
	pf.BoolVar(&c.logJSON, "log-json", false, "以 JSON 输出日志")

	root.AddCommand(
		c.renameCommand(config.CmdLower, "把含大写字母的文件名转为小写", nil),
		c.renameCommand(config.CmdPattern, "按正则表达式替换文件名", patternFlags(config.DefaultPattern, config.DefaultReplacement)),
		c.renameCommand(config.CmdDatePattern, "按日期模式重排文件名", patternFlags(config.DefaultDatePattern, config.DefaultDateReplacement)),
		c.renameCommand(config.CmdExifDate, "按 EXIF 拍摄时间重命名", exifFlags),
		c.renameCommand(config.CmdHash, "按内容哈希识别重复文件", nil),
		c.renameCommand(config.CmdFilesize, "在文件名后追加 9 位文件大小", nil),
		versionCommand(),
	)
	return root
}

func patternFlags(defPattern, defReplacement string) func(*cobra.Command) {
	return func(cmd *cobra.Command) {
		cmd.Flags().StringP("pattern", "p", defPattern, "匹配文件名的正则表达式（支持 /expr/flags 形式）")
		cmd.Flags().StringP("replacement", "r", defReplacement, "替换模板")
	}
}

func exifFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("target-filename-pattern", "f", config.DefaultExifPattern, "目标文件名的日期格式")
}

func (c *cli) renameCommand(name, short string, extra func(*cobra.Command)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <source-directory> [target-directory]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.exit = c.runRename(cmd, name, args)
			return nil
		},
	}
	if extra != nil {
		extra(cmd)
	}
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "renamer %s\n", version)
		},
	}
}

// cliArgs 把 cobra 的解析结果转换为 config.CLIArgs（保留 "是否显式指定"）。
func (c *cli) cliArgs(cmd *cobra.Command, name string, args []string) config.CLIArgs {
	flags := cmd.Flags()
	ca := config.CLIArgs{
		Command:           name,
		Source:            args[0],
		ConfigPath:        c.configPath,
		DryRun:            c.dryRun,
		Yes:               c.yes,
		Copy:              c.copyFiles,
		CopySet:           flags.Changed("copy"),
		SkipDuplicates:    c.skipDuplicates,
		SkipDuplicatesSet: flags.Changed("skip-duplicates"),
	}
	if len(args) > 1 {
		ca.Target = args[1]
	}

	for _, fl := range []string{"pattern", "target-filename-pattern"} {
		if flags.Lookup(fl) != nil && flags.Changed(fl) {
			ca.Pattern, _ = flags.GetString(fl)
			ca.PatternSet = true
		}
	}
	if flags.Lookup("replacement") != nil && flags.Changed("replacement") {
		ca.Replacement, _ = flags.GetString("replacement")
		ca.ReplacementSet = true
	}

	switch {
	case c.verbose:
		ca.LogLevel, ca.LogLevelSet = "debug", true
	case c.quiet:
		ca.LogLevel, ca.LogLevelSet = "warn", true
	}
	return ca
}

func (c *cli) runRename(cmd *cobra.Command, name string, args []string) int {
	ca := c.cliArgs(cmd, name, args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, ca)
	if err != nil {
		c.emitReport(reportForError(cwd, ca, config.Code(err), err))
		return 1
	}

	log, err := logging.New(c.stderr, eff.LogLevel, c.logJSON)
	if err != nil {
		c.emitReport(reportForError(cwd, ca, domain.ErrCodeConfigInvalid, err))
		return 1
	}
	if eff.ConfigFile != "" {
		log.WithField("config", eff.ConfigFile).Debug("已读取配置文件")
	}

	mode, err := app.BuildMode(eff, nil)
	if err != nil {
		code := domain.ErrCodeConfigInvalid
		if naming.IsPatternError(err) {
			code = domain.ErrCodePatternInvalid
		}
		log.WithField("pattern", eff.Pattern).Error(err)
		c.emitReport(reportForError(cwd, ca, code, err))
		return 1
	}

	if eff.DryRun {
		log.Info("正在执行 dry-run：不会修改任何文件")
	} else if !eff.Yes {
		ok, err := confirm(c.stdin, c.stderr, "将重命名所选目录中的所有文件，确定继续吗？")
		if err != nil || !ok {
			c.emitReport(reportForError(cwd, ca, domain.ErrCodeConfirmationDenied, errors.New("用户未确认，未做任何修改")))
			return 1
		}
	}

	var obs run.Observer = newLogObserver(log)
	if isTerminal(c.stderr) && !c.logJSON {
		obs = newProgressUI(c.stderr, log)
	}

	rr := run.ExecuteWithObserver(eff, mode, obs)
	c.emitReport(rr)
	if rr.OK() {
		return 0
	}
	return 1
}

// confirm 打印 [y/N] 提示并读取一行；只有 y/yes 视为同意。
func confirm(in io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// emitReport：stdout 非 TTY 时输出且仅输出一个 RunReport JSON；否则输出人类可读摘要。
func (c *cli) emitReport(rr domain.RunReport) {
	if isTerminal(c.stdout) {
		printSummary(c.stdout, rr)
		return
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rr)
	fmt.Fprintln(c.stderr, summaryLine(rr))
}

func summaryLine(rr domain.RunReport) string {
	s := rr.Summary
	return fmt.Sprintf("完成：files=%d renames=%d duplicates=%d transferred=%d planned=%d skipped=%d failed=%d",
		s.Files, s.Renames, s.Duplicates, s.Transferred, s.Planned, s.Skipped, s.Failed,
	)
}

func printSummary(w io.Writer, rr domain.RunReport) {
	if rr.ErrorCode != "" && rr.Summary.Renames == 0 {
		color.New(color.FgRed, color.Bold).Fprintf(w, "[ERROR] %s\n", rr.ErrorMsg)
		return
	}

	info := color.New(color.FgCyan)
	if rr.Summary.Duplicates > 0 {
		info.Fprintf(w, "[INFO] %d 个可能重复的文件\n", rr.Summary.Duplicates)
	}
	if rr.DryRun {
		info.Fprintf(w, "[INFO] dry-run：计划重命名 %d 个文件\n", rr.Summary.Planned)
	} else {
		info.Fprintf(w, "[INFO] 已重命名 %d 个文件\n", rr.Summary.Transferred)
	}
	if rr.Summary.Skipped > 0 {
		info.Fprintf(w, "[INFO] 跳过 %d 个重复文件\n", rr.Summary.Skipped)
	}

	if rr.ErrorCode != "" {
		color.New(color.FgRed, color.Bold).Fprintf(w, "[ERROR] %s: %s\n", rr.ErrorCode, rr.ErrorMsg)
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintln(w, "[OK] done")
}

// reportForError 为执行前失败（配置、模式、确认）合成一个空 RunReport。
func reportForError(cwd string, ca config.CLIArgs, code string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Command:    ca.Command,
		Source:     absFrom(cwd, ca.Source),
		Target:     absFrom(cwd, ca.Target),
		DryRun:     ca.DryRun,
		Copy:       ca.Copy,
		StartedAt:  now,
		FinishedAt: now,
		Items:      []domain.FileResult{},
		ErrorCode:  code,
		ErrorMsg:   err.Error(),
	}
	if rr.Target == "" {
		rr.Target = rr.Source
	}
	rr.Finalize()
	return rr
}

func absFrom(cwd, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
