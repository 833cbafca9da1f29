package shell

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/brettbedarf/simfs"
)

var errExit = errors.New("exit")

type command struct {
	usage   string
	help    string
	minArgs int
	maxArgs int // -1 for no limit
	run     func(s *Shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":  {"help", "Show this list", 0, 0, (*Shell).help},
		"clear": {"clear", "Clear the screen", 0, 0, (*Shell).clear},
		"exit":  {"exit", "Shut down and leave the shell", 0, 0, (*Shell).exit},
		"pwd":   {"pwd", "Print the working directory", 0, 0, (*Shell).pwd},
		"ls":    {"ls [path]", "List a directory", 0, 1, (*Shell).ls},
		"mkdir": {"mkdir <path>", "Create a directory and any missing parents", 1, 1, one((Engine).CreateDirectory)},
		"touch": {"touch <path>", "Create an empty file and any missing parents", 1, 1, one((Engine).CreateFile)},
		"cd":    {"'cd <path>' or 'cd ..'", "Change the working directory", 1, 1, one((Engine).ChangeDirectory)},
		"rm":    {"rm <path>", "Delete a file or directory tree", 1, 1, one((Engine).Delete)},
		"mv":    {"mv <source> <destination>", "Move or rename", 2, 2, two((Engine).Rename)},
		"cp":    {"cp <source> <destination>", "Copy a file", 2, 2, two((Engine).Copy)},
		"cat":   {"cat <path>", "Print a file", 1, 1, (*Shell).cat},
		"write": {"write <path> <text...>", "Replace a file's content, creating it if needed", 2, -1, (*Shell).write},
		"stat":  {"stat <path>", "Describe a node", 1, 1, (*Shell).stat},
	}
}

func one(op func(Engine, string) error) func(*Shell, []string) error {
	return func(s *Shell, args []string) error { return op(s.fs, args[0]) }
}

func two(op func(Engine, string, string) error) func(*Shell, []string) error {
	return func(s *Shell, args []string) error { return op(s.fs, args[0], args[1]) }
}

func (s *Shell) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(s.out, 0, 0, 3, ' ', 0)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(tw, "%s\t%s\n", c.usage, c.help)
	}
	return tw.Flush()
}

func (s *Shell) clear([]string) error {
	fmt.Fprint(s.out, "\033[H\033[2J")
	return nil
}

func (s *Shell) exit([]string) error {
	s.println("Shutting down.")
	return errExit
}

func (s *Shell) pwd([]string) error {
	s.println(s.fs.CurrentPath())
	return nil
}

func (s *Shell) ls(args []string) error {
	entries, err := s.fs.ListDirectory(args...)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.println(s.styles.header.Render("Type   LastWriteTime         Name"))
	s.println(s.styles.header.Render("----   -------------------   ----"))
	for _, e := range entries {
		name := e.Name
		if e.Type == simfs.DirectoryType {
			name = s.styles.dir.Render(name)
		}
		s.println(fmt.Sprintf("%-4s   %-19s   %s", e.Type, e.LastModified.Format(ListTimeLayout), name))
	}
	return nil
}

func (s *Shell) cat(args []string) error {
	content, err := s.fs.ReadFile(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		s.println()
	}
	return nil
}

// write creates the file first when it does not exist yet
func (s *Shell) write(args []string) error {
	if _, err := s.fs.Stat(args[0]); errors.Is(err, simfs.ErrNotFound) {
		if err := s.fs.CreateFile(args[0]); err != nil {
			return err
		}
	}
	return s.fs.WriteFile(args[0], strings.Join(args[1:], " "))
}

func (s *Shell) stat(args []string) error {
	info, err := s.fs.Stat(args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", info.Name)
	fmt.Fprintf(tw, "Path:\t%s\n", info.Path)
	fmt.Fprintf(tw, "Type:\t%s\n", info.Type)
	if info.IsDir() {
		fmt.Fprintf(tw, "Entries:\t%d\n", info.Size)
	} else {
		fmt.Fprintf(tw, "Size:\t%d\n", info.Size)
		if info.Extension != "" {
			fmt.Fprintf(tw, "Extension:\t%s\n", info.Extension)
		}
	}
	fmt.Fprintf(tw, "Created:\t%s\n", info.CreatedAt.Format(ListTimeLayout))
	fmt.Fprintf(tw, "Modified:\t%s\n", info.UpdatedAt.Format(ListTimeLayout))
	fmt.Fprintf(tw, "ID:\t%s\n", info.ID)
	return tw.Flush()
}
