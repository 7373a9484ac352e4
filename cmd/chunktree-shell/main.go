// cmd/chunktree-shell/main.go
//
// chunktree-shell — an interactive shell for driving a reconciler against
// a single parent's tree by hand, to poke at behavior or reproduce a bug
// without writing a one-off test.
//
// Usage:
//
//	chunktree-shell [chunk-size]
//
// Defaults to a chunk size of 3. Enter ".help" for available commands.
//
// Grounded on cmd/turdb/main.go (a database path argument, a REPL type
// owning stdout/stderr, a welcome banner) and pkg/cli/repl.go's
// dot-command dispatch loop. The multi-line statement buffering in
// pkg/cli/shell.go has no analogue here — every chunktree-shell command
// is a single line — so this shell reads lines directly with bufio
// rather than adapting Shell's continuation-prompt machinery.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"chunktree/pkg/ctree"
	"chunktree/pkg/reconciler"
)

func main() {
	chunkSize := 3
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 2 {
			fmt.Fprintf(os.Stderr, "chunk-size must be an integer >= 2, got %q\n", os.Args[1])
			os.Exit(1)
		}
		chunkSize = n
	}

	repl := newREPL(chunkSize, os.Stdin, os.Stdout, os.Stderr)
	repl.run()
}

// repl owns one tree and the sequence of string items it was last
// reconciled against, so each command reconciles from wherever the
// previous one left off.
type repl struct {
	chunkSize int
	tree      *ctree.Tree[string]
	children  []string
	debug     bool

	input  *bufio.Scanner
	output io.Writer
	errOut io.Writer

	exitRequested bool
}

func newREPL(chunkSize int, input io.Reader, output, errOut io.Writer) *repl {
	return &repl{
		chunkSize: chunkSize,
		tree:      ctree.NewTree[string](),
		debug:     true,
		input:     bufio.NewScanner(input),
		output:    output,
		errOut:    errOut,
	}
}

func keyOfString(s string) ctree.Key { return ctree.Key(s) }

func (r *repl) run() {
	fmt.Fprintln(r.output, "chunktree-shell")
	fmt.Fprintf(r.output, "chunk size %d. Enter \".help\" for usage hints.\n", r.chunkSize)

	for !r.exitRequested {
		fmt.Fprint(r.output, "chunktree> ")
		if !r.input.Scan() {
			fmt.Fprintln(r.output)
			break
		}
		line := strings.TrimSpace(r.input.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			r.handleCommand(line)
			continue
		}
		fmt.Fprintf(r.errOut, "unrecognized input %q — commands start with \".\"\n", line)
	}
}

func (r *repl) handleCommand(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case ".help":
		r.printHelp()
	case ".exit", ".quit":
		r.exitRequested = true
	case ".show":
		r.show()
	case ".set":
		r.reconcile(args)
	case ".append":
		r.reconcile(append(append([]string{}, r.children...), args...))
	case ".prepend":
		r.reconcile(append(append([]string{}, args...), r.children...))
	case ".remove":
		r.remove(args)
	case ".debug":
		r.setDebug(args)
	case ".chunksize":
		fmt.Fprintf(r.output, "%d\n", r.chunkSize)
	default:
		fmt.Fprintf(r.errOut, "unknown command %q — try \".help\"\n", cmd)
	}
}

func (r *repl) printHelp() {
	fmt.Fprint(r.output, `Available commands:
  .set a b c ...    reconcile the tree to exactly this sequence of keys
  .append a b ...   reconcile with these keys appended to the current sequence
  .prepend a b ...  reconcile with these keys prepended to the current sequence
  .remove a b ...   reconcile with these keys removed from the current sequence
  .show             print the current leaf order and modified-chunk count
  .debug on|off     toggle the after-every-mutation consistency check
  .chunksize        print the configured fanout bound
  .help             show this message
  .exit             leave the shell
`)
}

func (r *repl) reconcile(next []string) {
	r.reconcileTo(next)
	r.show()
}

func (r *repl) remove(keys []string) {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	next := make([]string, 0, len(r.children))
	for _, c := range r.children {
		if !drop[c] {
			next = append(next, c)
		}
	}
	r.reconcile(next)
}

func (r *repl) reconcileTo(next []string) {
	opts := reconciler.Options[string]{
		Children:  next,
		ChunkSize: r.chunkSize,
		Debug:     r.debug,
		Callbacks: reconciler.Callbacks[string]{
			OnInsert:      func(item string, idx int) { fmt.Fprintf(r.output, "insert %q at %d\n", item, idx) },
			OnUpdate:      func(item string, idx int) { fmt.Fprintf(r.output, "update %q at %d\n", item, idx) },
			OnIndexChange: func(item string, idx int) { fmt.Fprintf(r.output, "moved %q to %d\n", item, idx) },
		},
	}
	func() {
		defer func() {
			if p := recover(); p != nil {
				fmt.Fprintf(r.errOut, "reconcile panicked: %v\n", p)
			}
		}()
		reconciler.Reconcile(r.tree, keyOfString, opts)
		r.children = next
	}()
}

func (r *repl) setDebug(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(r.errOut, "usage: .debug on|off")
		return
	}
	r.debug = args[0] == "on"
}

func (r *repl) show() {
	leaves := ctree.CollectLeaves(r.tree)
	fmt.Fprintf(r.output, "leaves: %s\n", strings.Join(leaves, " "))
	fmt.Fprintf(r.output, "modified chunks: %d\n", len(r.tree.ModifiedChunks()))
}
