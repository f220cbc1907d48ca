package deps

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/harrison/scone-ci/internal/executor"
	"github.com/harrison/scone-ci/internal/models"
)

// Builder runs dependency builds through a CommandRunner.
type Builder struct {
	layout  Layout
	runner  executor.CommandRunner
	out     io.Writer
	goos    string
	cores   int
	dryRun  bool
	counter int
}

// Option configures a Builder.
type Option func(*Builder)

// WithOutput sets where ">> Running:" announcements and notices go.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) {
		if w != nil {
			b.out = w
		}
	}
}

// WithGOOS overrides the platform used to pick OpenSim flags.
func WithGOOS(goos string) Option {
	return func(b *Builder) {
		if goos != "" {
			b.goos = goos
		}
	}
}

// WithCores sets the parallel build job count.
func WithCores(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.cores = n
		}
	}
}

// WithDryRun announces commands without running them or touching the filesystem.
func WithDryRun(dry bool) Option {
	return func(b *Builder) {
		b.dryRun = dry
	}
}

// DefaultCores is half the CPU count, at least 1.
func DefaultCores() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

// NewBuilder creates a Builder for layout.
func NewBuilder(layout Layout, runner executor.CommandRunner, opts ...Option) *Builder {
	b := &Builder{
		layout: layout,
		runner: runner,
		out:    os.Stdout,
		goos:   runtime.GOOS,
		cores:  DefaultCores(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EnsureDirs creates submodules/, dependencies/ and one directory per component.
func (b *Builder) EnsureDirs() error {
	if b.dryRun {
		return nil
	}
	dirs := []string{b.layout.Submodules, b.layout.Dependencies}
	for _, name := range b.layout.Components() {
		dirs = append(dirs, b.layout.DepDir(name))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// AlreadyBuilt reports whether a component's install directory exists.
func (b *Builder) AlreadyBuilt(name string) bool {
	_, err := os.Stat(b.layout.InstallDir(name))
	return err == nil
}

// Build runs target. rebuild forces components that are already installed.
func (b *Builder) Build(ctx context.Context, target Target, rebuild bool) error {
	if err := b.EnsureDirs(); err != nil {
		return err
	}

	switch target {
	case TargetDeps:
		return b.InstallSystemDeps(ctx)
	case TargetAll:
		for _, name := range b.layout.Components() {
			if err := b.BuildComponent(ctx, name, rebuild); err != nil {
				return err
			}
		}
		return nil
	case TargetOSG, TargetSimbody, TargetOpenSim, TargetSCONE:
		return b.BuildComponent(ctx, string(target), rebuild)
	default:
		return fmt.Errorf("invalid target %q", target)
	}
}

// InstallSystemDeps installs the apt packages and the fpm gem used for packaging.
func (b *Builder) InstallSystemDeps(ctx context.Context) error {
	if err := b.run(ctx, "deps", "", "sudo", "apt-get", "update"); err != nil {
		return err
	}
	install := append([]string{"apt-get", "install", "-y"}, AptPackages()...)
	if err := b.run(ctx, "deps", "", "sudo", install...); err != nil {
		return err
	}
	return b.run(ctx, "deps", "", "sudo", "gem", "install", "--no-document", "fpm")
}

// BuildComponent configures, builds and installs one component.
func (b *Builder) BuildComponent(ctx context.Context, name string, rebuild bool) error {
	c, ok := lookupComponent(name)
	if !ok {
		return fmt.Errorf("unknown component %q", name)
	}
	if c.fixed && !rebuild && b.AlreadyBuilt(name) {
		fmt.Fprintf(b.out, "%s already built. Use --rebuild to force.\n", c.display)
		return nil
	}
	return b.cmakeConfigureAndBuild(ctx, name, cmakeFlags(b.layout, name, b.goos))
}

func (b *Builder) cmakeConfigureAndBuild(ctx context.Context, name string, extraFlags []string) error {
	src := b.layout.Source(name)
	build := b.layout.BuildDir(name)
	install := b.layout.InstallDir(name)

	if !b.dryRun {
		if err := os.RemoveAll(build); err != nil {
			return fmt.Errorf("remove %s: %w", build, err)
		}
		if err := os.MkdirAll(build, 0755); err != nil {
			return fmt.Errorf("create %s: %w", build, err)
		}
	}

	configure := []string{
		src,
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_INSTALL_PREFIX=" + install,
		"-DCMAKE_POLICY_VERSION_MINIMUM=3.5",
	}
	configure = append(configure, extraFlags...)

	if err := b.run(ctx, name, build, "cmake", configure...); err != nil {
		return err
	}
	if err := b.run(ctx, name, build, "cmake", "--build", ".", "--parallel", strconv.Itoa(b.cores)); err != nil {
		return err
	}
	return b.run(ctx, name, build, "cmake", "--install", ".")
}

// run announces and executes one command; a non-zero exit aborts the build.
func (b *Builder) run(ctx context.Context, stage, dir, name string, args ...string) error {
	argv := append([]string{name}, args...)
	fmt.Fprintf(b.out, "\n>> Running: %s\n", strings.Join(argv, " "))

	index := b.counter
	b.counter++
	if b.dryRun {
		return nil
	}

	res := b.runner.Run(ctx, executor.Command{Path: name, Args: args, Dir: dir})
	if res.OK() {
		return nil
	}
	code := res.Code
	if code == 0 {
		code = executor.ExitGeneric
	}
	step := models.Step{Name: stage, Label: strings.Join(argv, " "), Executable: name}
	return models.NewStepFailure(index, step, code, res.Err)
}
