package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/vanta-lang/vanta/internal/binding"
	"github.com/vanta-lang/vanta/internal/cli"
	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/position"
	"github.com/vanta-lang/vanta/internal/symbol"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		jsonOutput  = flag.Bool("json", false, "output version in JSON format")
		noPrompt    = flag.Bool("no-prompt", false, "disable interactive prompt")
		evalStr     = flag.String("eval", "", "evaluate a single command and exit")
		depwarn     = flag.String("depwarn", "warn", "deprecation warning mode: off, warn, error")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Vanta module & binding console.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCOMMANDS:\n")
		fmt.Fprintf(os.Stderr, "  module <name> [parent]        create a module\n")
		fmt.Fprintf(os.Stderr, "  using <to> <from>             to uses from\n")
		fmt.Fprintf(os.Stderr, "  import <to> <from> <name>     import from.name into to\n")
		fmt.Fprintf(os.Stderr, "  export <module> <name>        mark name exported\n")
		fmt.Fprintf(os.Stderr, "  set <module> <name> <value>   checked assignment\n")
		fmt.Fprintf(os.Stderr, "  const <module> <name> <value> set_const\n")
		fmt.Fprintf(os.Stderr, "  resolve <module> <name>       resolve_owner and print owner\n")
		fmt.Fprintf(os.Stderr, "  deprecate <module> <name> <1|2>  mark renamed/moved\n")
		fmt.Fprintf(os.Stderr, "  names <module> [all]          list module names\n")
		fmt.Fprintf(os.Stderr, "  clear <module>                clear_implicit_imports\n")
		fmt.Fprintf(os.Stderr, "  :quit, :q                     exit\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		cli.PrintVersion("Vanta Module Console", *jsonOutput)
		os.Exit(0)
	}

	var mode binding.DepWarn

	switch *depwarn {
	case "off":
		mode = binding.DepWarnOff
	case "error":
		mode = binding.DepWarnError
	default:
		mode = binding.DepWarnWarn
	}

	console := newConsole(mode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}()

	if *evalStr != "" {
		fmt.Println(console.Eval(*evalStr))
		os.Exit(0)
	}

	if !*noPrompt {
		fmt.Println("Vanta module console. Type :help for commands, :quit to exit.")
	}

	console.Run(*noPrompt)
}

// console drives a binding.Runtime from line-oriented commands, the way
// the teacher's REPL drives its evaluator from the same kind of loop.
type console struct {
	rt      *binding.Runtime
	diag    *diagnostic.Manager
	depwarn binding.DepWarn
	modules map[string]*binding.Module
	scanner *bufio.Scanner
	line    int
}

const consoleSource = "<console>"

// span returns a single-point position.Span at the current input line, so
// `set`/`const` commands record a real Binding.DeclSpan even though the
// console has no parser of its own.
func (c *console) span() position.Span {
	pos := position.Position{Filename: consoleSource, Line: c.line, Column: 1, Offset: c.line}
	return position.Span{Start: pos, End: pos}
}

func newConsole(depwarn binding.DepWarn) *console {
	diag := diagnostic.NewManager()
	rt := binding.NewRuntime(diag, binding.Options{DepWarn: depwarn})

	c := &console{
		rt:      rt,
		diag:    diag,
		depwarn: depwarn,
		modules: make(map[string]*binding.Module),
		scanner: bufio.NewScanner(os.Stdin),
	}

	c.modules["Core"] = rt.Core
	c.modules["Base"] = rt.Base
	c.modules["Main"] = rt.Main

	return c
}

func (c *console) Run(noPrompt bool) {
	for {
		if !noPrompt {
			fmt.Print("vanta> ")
		}

		if !c.scanner.Scan() {
			return
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		if line == ":quit" || line == ":q" || line == ":exit" {
			return
		}

		if line == ":help" {
			flag.Usage()
			continue
		}

		fmt.Println(c.Eval(line))
	}
}

func (c *console) Eval(line string) string {
	c.line++

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	defer c.flushWarnings()

	switch fields[0] {
	case "module":
		return c.cmdModule(fields[1:])
	case "using":
		return c.cmdUsing(fields[1:])
	case "import":
		return c.cmdImport(fields[1:])
	case "export":
		return c.cmdExport(fields[1:])
	case "set":
		return c.cmdSet(fields[1:])
	case "const":
		return c.cmdConst(fields[1:])
	case "resolve":
		return c.cmdResolve(fields[1:])
	case "deprecate":
		return c.cmdDeprecate(fields[1:])
	case "names":
		return c.cmdNames(fields[1:])
	case "clear":
		return c.cmdClear(fields[1:])
	default:
		return fmt.Sprintf("unknown command: %s", fields[0])
	}
}

func (c *console) flushWarnings() {
	for _, w := range c.diag.Warnings() {
		fmt.Print(w)
	}

	c.diag.Clear()
}

func (c *console) module(name string) *binding.Module {
	return c.modules[name]
}

func (c *console) cmdModule(args []string) string {
	if len(args) < 1 {
		return "usage: module <name> [parent]"
	}

	parent := c.rt.Main
	if len(args) >= 2 {
		if p := c.module(args[1]); p != nil {
			parent = p
		}
	}

	m := c.rt.NewChildModule(symbol.Intern(args[0]), parent, true)
	c.modules[args[0]] = m

	return fmt.Sprintf("created %s (parent=%s)", m.Name(), parent.Name())
}

func (c *console) cmdUsing(args []string) string {
	if len(args) != 2 {
		return "usage: using <to> <from>"
	}

	to, from := c.module(args[0]), c.module(args[1])
	if to == nil || from == nil {
		return "unknown module"
	}

	binding.UsingModule(c.diag, to, from)

	return fmt.Sprintf("%s using %s", to.Name(), from.Name())
}

func (c *console) cmdImport(args []string) string {
	if len(args) != 3 {
		return "usage: import <to> <from> <name>"
	}

	to, from := c.module(args[0]), c.module(args[1])
	if to == nil || from == nil {
		return "unknown module"
	}

	name := symbol.Intern(args[2])
	b := binding.ResolveOwner(c.diag, from, name)
	binding.Import(c.diag, to, from, b, name, name)

	return fmt.Sprintf("imported %s.%s into %s", from.Name(), args[2], to.Name())
}

func (c *console) cmdExport(args []string) string {
	if len(args) != 2 {
		return "usage: export <module> <name>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	binding.Export(m, symbol.Intern(args[1]))

	return fmt.Sprintf("exported %s.%s", m.Name(), args[1])
}

func (c *console) cmdSet(args []string) string {
	if len(args) != 3 {
		return "usage: set <module> <name> <value>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	if err := binding.Assign(c.diag, m, symbol.Intern(args[1]), parseValue(args[2]), c.span()); err != nil {
		return err.Error()
	}

	return fmt.Sprintf("%s.%s = %s", m.Name(), args[1], args[2])
}

func (c *console) cmdConst(args []string) string {
	if len(args) != 3 {
		return "usage: const <module> <name> <value>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	if err := binding.SetConst(m, symbol.Intern(args[1]), parseValue(args[2]), c.span()); err != nil {
		return err.Error()
	}

	return fmt.Sprintf("const %s.%s = %s", m.Name(), args[1], args[2])
}

func (c *console) cmdResolve(args []string) string {
	if len(args) != 2 {
		return "usage: resolve <module> <name>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	b := binding.ResolveOwner(c.diag, m, symbol.Intern(args[1]))
	if b == nil {
		return "undefined"
	}

	v, ok := b.Value()
	if !ok {
		return fmt.Sprintf("%s.%s (unset)", b.Module.Name(), args[1])
	}

	return fmt.Sprintf("%s.%s = %v", b.Module.Name(), args[1], v)
}

func (c *console) cmdDeprecate(args []string) string {
	if len(args) != 3 {
		return "usage: deprecate <module> <name> <1|2>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	flag, err := strconv.Atoi(args[2])
	if err != nil {
		return err.Error()
	}

	binding.DeprecateBinding(c.diag, m, symbol.Intern(args[1]), binding.DeprecationState(flag))

	return fmt.Sprintf("deprecated %s.%s (%d)", m.Name(), args[1], flag)
}

func (c *console) cmdNames(args []string) string {
	if len(args) < 1 {
		return "usage: names <module> [all]"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	all := len(args) >= 2 && args[1] == "all"

	names := m.ModuleNames(all, true)
	out := make([]string, len(names))

	for i, n := range names {
		out[i] = n.Name()
	}

	return strings.Join(out, " ")
}

func (c *console) cmdClear(args []string) string {
	if len(args) != 1 {
		return "usage: clear <module>"
	}

	m := c.module(args[0])
	if m == nil {
		return "unknown module"
	}

	m.ClearImplicitImports()

	return fmt.Sprintf("cleared implicit imports in %s", m.Name())
}

// parseValue interprets a command-line token as an int64 if possible,
// otherwise as a plain string value.
func parseValue(tok string) binding.Value {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return n
	}

	return tok
}
