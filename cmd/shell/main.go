// Command shell is an interactive REPL over a mounted image, grounded
// on the teacher's cmd/fsexplorer repl loop (bufio.NewReader over
// os.Stdin, strings.Fields tokenizing, a switch on the first token).
// Unlike fsexplorer it can mutate the image -- create, remove, write --
// and it drives a decorative toy scheduler alongside every command,
// the way the assignment this shell's grammar was pulled from paired a
// filesystem CLI with a process scheduler simulation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jnwhiteh/blockfs/fs"
	"github.com/jnwhiteh/blockfs/render"
	"github.com/jnwhiteh/blockfs/scheduler"
)

func ferr(f string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, f, s...)
}

type shell struct {
	e    *fs.Engine
	sch  *scheduler.Scheduler
	out  *bufio.Writer
	file string
}

func main() {
	var filename string
	flag.StringVar(&filename, "file", "hello.img", "the filesystem image to mount")
	flag.Parse()

	var e *fs.Engine
	var err error
	if _, statErr := os.Stat(filename); statErr != nil {
		e, err = fs.Format(filename)
	} else {
		e, err = fs.Mount(filename)
	}
	if err != nil {
		ferr("error opening %q: %s\n", filename, err)
		os.Exit(1)
	}
	defer e.Shutdown()

	sh := &shell{
		e:    e,
		sch:  scheduler.New(),
		out:  bufio.NewWriter(os.Stdout),
		file: filename,
	}
	sh.repl()
}

func (sh *shell) repl() {
	fmt.Fprintln(sh.out, "blockfs shell")
	fmt.Fprintf(sh.out, "attached to %s, session %s\n", sh.file, sh.e.SessionID())
	fmt.Fprintln(sh.out, "enter 'help' for a list of commands.")
	sh.out.Flush()

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprintf(sh.out, "%s> ", sh.e.Cwd())
		sh.out.Flush()

		line, err := in.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				ferr("read error: %s\n", err)
			}
			fmt.Fprintln(sh.out)
			break
		}
		line = strings.TrimRight(line, "\r\n")
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}

		if tokens[0] == "exit" || tokens[0] == "quit" {
			break
		}

		sh.dispatch(line, tokens)
		sh.tickScheduler(line)
		sh.out.Flush()
	}
}

func (sh *shell) tickScheduler(line string) {
	sh.sch.AddProcess(line)
	for _, l := range sh.sch.Tick() {
		fmt.Fprintf(sh.out, "sched: %s\n", l)
	}
}

func (sh *shell) dispatch(line string, tokens []string) {
	switch tokens[0] {
	case "help":
		sh.help()
	case "ls":
		sh.ls(tokens)
	case "cd":
		sh.cd(tokens)
	case "pwd":
		fmt.Fprintln(sh.out, sh.e.Cwd())
	case "mkdir":
		sh.mkdir(tokens)
	case "rmdir":
		sh.rmdir(tokens)
	case "touch":
		sh.touch(tokens)
	case "rm":
		sh.rm(tokens)
	case "cat":
		sh.cat(tokens)
	case "echo":
		sh.echo(line)
	case "fsck":
		fmt.Fprint(sh.out, render.Check(sh.e.Check()))
	case "format":
		sh.format()
	case "ps":
		fmt.Fprint(sh.out, render.ProcessTable(sh.sch.ProcessList(), sh.sch.GetAlgorithm()))
	case "sched":
		sh.setAlgorithm(tokens)
	case "create":
		sh.create(tokens)
	case "open":
		sh.open(tokens)
	case "read":
		sh.read(tokens)
	case "write":
		sh.write(tokens)
	case "close":
		sh.closeFd(tokens)
	default:
		fmt.Fprintf(sh.out, "%s: command not found\n", tokens[0])
	}
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out, "commands:")
	for _, l := range []string{
		"ls [path]", "cd path", "pwd", "mkdir path", "rmdir path",
		"touch path", "rm [-rRfF] path...", "cat path",
		`echo "text" > path`, "fsck", "format", "ps", "sched fcfs|rr|sjf",
		"create path", "open path r|w|rw|flags", "read fd n", "write fd text", "close fd",
		"exit",
	} {
		fmt.Fprintf(sh.out, "  %s\n", l)
	}
}

func (sh *shell) ls(tokens []string) {
	path := sh.e.Cwd()
	if len(tokens) > 1 {
		path = tokens[1]
	}
	entries, err := sh.e.List(path)
	if err != nil {
		ferr("ls: %s\n", err)
		return
	}
	var rendered []render.Entry
	for _, ent := range entries {
		name := ent.NameString()
		di, err := sh.e.Stat(joinDisplay(path, name))
		if err != nil {
			ferr("ls: %s: %s\n", name, err)
			continue
		}
		rendered = append(rendered, render.Entry{Name: name, Inode: di})
	}
	fmt.Fprint(sh.out, render.LS(rendered))
}

func joinDisplay(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

func (sh *shell) cd(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: cd path\n")
		return
	}
	if err := sh.e.Chdir(tokens[1]); err != nil {
		ferr("cd: %s\n", err)
	}
}

func (sh *shell) mkdir(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: mkdir path\n")
		return
	}
	if err := sh.e.Mkdir(tokens[1]); err != nil {
		ferr("mkdir: %s\n", err)
	}
}

func (sh *shell) rmdir(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: rmdir path\n")
		return
	}
	if err := sh.e.RemoveDir(tokens[1]); err != nil {
		ferr("rmdir: %s\n", err)
	}
}

func (sh *shell) touch(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: touch path\n")
		return
	}
	if err := sh.e.Create(tokens[1]); err != nil {
		ferr("touch: %s\n", err)
	}
}

func (sh *shell) rm(tokens []string) {
	recursive, force := false, false
	var targets []string
	for _, t := range tokens[1:] {
		if strings.HasPrefix(t, "-") {
			for _, c := range t[1:] {
				switch c {
				case 'r', 'R':
					recursive = true
				case 'f', 'F':
					force = true
				}
			}
			continue
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		ferr("usage: rm [-rRfF] path...\n")
		return
	}
	for _, target := range targets {
		if err := sh.e.Rm(target, recursive, force); err != nil {
			ferr("rm: %s\n", err)
		}
	}
}

func (sh *shell) cat(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: cat path\n")
		return
	}
	di, err := sh.e.Stat(tokens[1])
	if err != nil {
		ferr("cat: %s\n", err)
		return
	}
	if di.IsDirectory() {
		ferr("cat: %s: is a directory\n", tokens[1])
		return
	}
	fd, err := sh.e.Open(tokens[1], fs.ReadOnly)
	if err != nil {
		ferr("cat: %s\n", err)
		return
	}
	defer sh.e.Close(fd)
	buf := make([]byte, di.Size)
	n, err := sh.e.Read(fd, buf)
	if err != nil {
		ferr("cat: %s\n", err)
		return
	}
	fmt.Fprint(sh.out, render.Cat(buf[:n]))
}

// echo parses `echo "text" > path`, ignoring the fixed strings.Fields
// tokenizer for this one command since quoted text may contain spaces.
func (sh *shell) echo(line string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "echo"))
	gt := strings.LastIndex(rest, ">")
	if gt == -1 {
		fmt.Fprintln(sh.out, strings.Trim(rest, `"`))
		return
	}
	text := strings.TrimSpace(rest[:gt])
	text = strings.Trim(text, `"`)
	path := strings.TrimSpace(rest[gt+1:])
	if path == "" {
		ferr("usage: echo \"text\" > path\n")
		return
	}
	fd, err := sh.e.Open(path, fs.Create|fs.WriteOnly|fs.Truncate)
	if err != nil {
		ferr("echo: %s\n", err)
		return
	}
	defer sh.e.Close(fd)
	if _, err := sh.e.Write(fd, []byte(text)); err != nil {
		ferr("echo: %s\n", err)
	}
}

func (sh *shell) format() {
	if err := sh.e.Shutdown(); err != nil {
		ferr("format: %s\n", err)
		return
	}
	e, err := fs.Format(sh.file)
	if err != nil {
		ferr("format: %s\n", err)
		return
	}
	sh.e = e
	fmt.Fprintln(sh.out, "formatted")
}

func (sh *shell) setAlgorithm(tokens []string) {
	if len(tokens) < 2 {
		fmt.Fprintf(sh.out, "current algorithm: %s\n", sh.sch.GetAlgorithm())
		return
	}
	switch strings.ToLower(tokens[1]) {
	case "fcfs":
		sh.sch.SetAlgorithm(scheduler.FCFS)
	case "rr":
		sh.sch.SetAlgorithm(scheduler.RR)
	case "sjf":
		sh.sch.SetAlgorithm(scheduler.SJF)
	default:
		ferr("sched: unknown algorithm %q\n", tokens[1])
	}
}

func (sh *shell) create(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: create path\n")
		return
	}
	if err := sh.e.Create(tokens[1]); err != nil {
		ferr("create: %s\n", err)
	}
}

func (sh *shell) open(tokens []string) {
	if len(tokens) < 3 {
		ferr("usage: open path r|w|rw|flags\n")
		return
	}
	var flags fs.OpenFlag
	switch tokens[2] {
	case "r":
		flags = fs.ReadOnly
	case "w":
		flags = fs.Create | fs.WriteOnly
	case "rw":
		flags = fs.Create | fs.ReadWrite
	default:
		// A number is taken as the raw flag bits (1 read, 2 write,
		// 4 create, 8 truncate, 16 append).
		n, err := strconv.Atoi(tokens[2])
		if err != nil || n <= 0 {
			ferr("open: unknown mode %q\n", tokens[2])
			return
		}
		flags = fs.OpenFlag(n)
	}
	fd, err := sh.e.Open(tokens[1], flags)
	if err != nil {
		ferr("open: %s\n", err)
		return
	}
	fmt.Fprintf(sh.out, "fd %d\n", fd)
}

func (sh *shell) read(tokens []string) {
	if len(tokens) < 3 {
		ferr("usage: read fd n\n")
		return
	}
	fd, n, err := parseFdN(tokens[1], tokens[2])
	if err != nil {
		ferr("read: %s\n", err)
		return
	}
	buf := make([]byte, n)
	read, err := sh.e.Read(fd, buf)
	if err != nil {
		ferr("read: %s\n", err)
		return
	}
	fmt.Fprintf(sh.out, "%q\n", buf[:read])
}

func (sh *shell) write(tokens []string) {
	if len(tokens) < 3 {
		ferr("usage: write fd text\n")
		return
	}
	fd, err := strconv.Atoi(tokens[1])
	if err != nil {
		ferr("write: bad fd %q\n", tokens[1])
		return
	}
	text := strings.Trim(strings.Join(tokens[2:], " "), `"`)
	n, err := sh.e.Write(fd, []byte(text))
	if err != nil {
		ferr("write: %s\n", err)
		return
	}
	fmt.Fprintf(sh.out, "wrote %d bytes\n", n)
}

func (sh *shell) closeFd(tokens []string) {
	if len(tokens) < 2 {
		ferr("usage: close fd\n")
		return
	}
	fd, err := strconv.Atoi(tokens[1])
	if err != nil {
		ferr("close: bad fd %q\n", tokens[1])
		return
	}
	if err := sh.e.Close(fd); err != nil {
		ferr("close: %s\n", err)
	}
}

func parseFdN(fdTok, nTok string) (int, int, error) {
	fd, err := strconv.Atoi(fdTok)
	if err != nil {
		return 0, 0, fmt.Errorf("bad fd %q", fdTok)
	}
	n, err := strconv.Atoi(nTok)
	if err != nil {
		return 0, 0, fmt.Errorf("bad length %q", nTok)
	}
	return fd, n, nil
}
