// Package shell is the interactive command loop in front of the file
// system engine.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/charmbracelet/lipgloss"
)

// Prompt precedes the working directory on every prompt line
const Prompt = "root@FileSystemSimulator: "

// ListTimeLayout renders LastWriteTime as dd-MM-yyyy hh:mm AM/PM
const ListTimeLayout = "02-01-2006 03:04 PM"

// Engine is the set of file system operations the shell drives
type Engine interface {
	CreateDirectory(p string) error
	CreateFile(p string) error
	ChangeDirectory(p string) error
	ListDirectory(p ...string) ([]simfs.ListEntry, error)
	Rename(oldPath, newPath string) error
	Copy(srcPath, dstPath string) error
	Delete(p string) error
	WriteFile(p, content string) error
	ReadFile(p string) (string, error)
	Stat(p string) (simfs.NodeInfo, error)
	CurrentPath() string
}

type styles struct {
	prompt lipgloss.Style
	path   lipgloss.Style
	header lipgloss.Style
	dir    lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		prompt: r.NewStyle().Foreground(lipgloss.Color("39")),
		path:   r.NewStyle().Foreground(lipgloss.Color("220")),
		header: r.NewStyle().Foreground(lipgloss.Color("42")),
		dir:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		err:    r.NewStyle().Foreground(lipgloss.Color("196")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Shell reads commands from in and writes results to out
type Shell struct {
	fs     Engine
	in     io.Reader
	out    io.Writer
	styles styles
}

// New returns a shell over fs. Colors are enabled only when out is a
// terminal.
func New(fs Engine, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		fs:     fs,
		in:     in,
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Run executes commands until "exit", end of input or ctx is done
func (s *Shell) Run(ctx context.Context) error {
	logger := util.GetLogger("Shell.Run")
	s.println("System started. Type 'help' to see commands.")

	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		s.prompt()
		select {
		case <-ctx.Done():
			s.println("")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				s.println("")
				select {
				case err := <-errc:
					if err != nil {
						logger.Error().Err(err).Msg("Failed to read input")
						return err
					}
				default:
				}
				return nil
			}
			if exit := s.Exec(line); exit {
				return nil
			}
		}
	}
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, s.styles.prompt.Render(Prompt))
	fmt.Fprintln(s.out, s.styles.path.Render(s.fs.CurrentPath()))
	fmt.Fprint(s.out, "$ ")
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) errorf(format string, a ...any) {
	fmt.Fprintln(s.out, s.styles.err.Render("Error: "+fmt.Sprintf(format, a...)))
}

func (s *Shell) usage(u string) {
	fmt.Fprintln(s.out, s.styles.muted.Render("Use: "+u))
}

// Exec runs a single command line and reports whether the shell should exit
func (s *Shell) Exec(line string) (exit bool) {
	logger := util.GetLogger("Shell.Exec")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]
	logger.Trace().Str("command", name).Strs("args", args).Msg("Exec")

	cmd, ok := commands[name]
	if !ok {
		s.println(fmt.Sprintf("'%s' is not a valid command.", name))
		return false
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		s.usage(cmd.usage)
		return false
	}
	if err := cmd.run(s, args); err != nil {
		if err == errExit {
			return true
		}
		s.errorf("%v", err)
	}
	return false
}
