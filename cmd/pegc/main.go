// Command pegc generates a Go parser from a PEG grammar file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"github.com/periwinkle-lang/periwinkle/internal/analysis"
	"github.com/periwinkle-lang/periwinkle/internal/config"
	"github.com/periwinkle-lang/periwinkle/internal/dslparser"
	"github.com/periwinkle-lang/periwinkle/internal/driver"
	"github.com/periwinkle-lang/periwinkle/internal/leftrec"
	"github.com/periwinkle-lang/periwinkle/internal/pegclog"
	"github.com/periwinkle-lang/periwinkle/internal/token"
)

// version is overwritten at release build time via -ldflags.
var version = "dev"

func main() {
	var (
		dbgFlag     = flag.Bool("debug", false, "verbose structured logging of each pipeline stage")
		shortHelp   = flag.Bool("h", false, "show help page")
		longHelp    = flag.Bool("help", false, "show help page")
		outputFlag  = flag.String("o", "", "output file stem, defaults to the input file's base name")
		recvrFlag   = flag.String("receiver-name", "", "receiver variable name of every generated rule method (default p)")
		noBuildFlag = flag.Bool("x", false, "parse and analyze only, do not generate")
		watchFlag   = flag.Bool("watch", false, "watch the input for changes and regenerate")
		statsFlag   = flag.Bool("stats", false, "print a table of rules after a successful build")
		configFlag  = flag.String("config", "", "load defaults from an INI file (defaults to ./.pegcrc if present)")
		replFlag    = flag.String("repl", "", "load GRAMMAR_FILE and open an interactive inspection session")
		versionFlag = flag.Bool("version", false, "print generator version")
	)
	flag.Usage = usage
	flag.Parse()

	if *shortHelp || *longHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Println("pegc", version)
		os.Exit(0)
	}

	if *replFlag != "" {
		runRepl(*replFlag)
		return
	}

	if flag.NArg() != 1 {
		argError(1, "expected exactly one grammar file or glob pattern, got %q", strings.Join(flag.Args(), " "))
	}
	pattern := flag.Arg(0)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	cfg = cfg.Merge(config.Config{ReceiverName: *recvrFlag, OutputDir: ""})

	log := pegclog.New(*dbgFlag)
	opts := driver.Options{
		OutputDir:    cfg.OutputDir,
		OutputStem:   *outputFlag,
		PackageName:  "main",
		ReceiverName: cfg.ReceiverName,
		AnalyzeOnly:  *noBuildFlag,
		Log:          log,
	}

	if *watchFlag {
		runWatch(pattern, opts, *statsFlag)
		return
	}

	results, err := buildOne(pattern, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build error(s):\n", err)
		os.Exit(1)
	}
	if *statsFlag {
		for _, r := range results {
			printStats(r)
		}
	}
}

// buildOne runs Build for a plain path, or Batch when pattern carries glob
// metacharacters (mirrors driver.Expand's own plain-path/glob distinction).
func buildOne(pattern string, opts driver.Options) ([]*driver.Result, error) {
	if strings.ContainsAny(pattern, "*?[{") {
		return driver.Batch(pattern, opts)
	}
	res, err := driver.Build(pattern, opts)
	if err != nil {
		return nil, err
	}
	return []*driver.Result{res}, nil
}

func runWatch(pattern string, opts driver.Options, stats bool) {
	files, err := driver.Expand(pattern)
	if err != nil {
		fmt.Fprintln(os.Stderr, "watch error:", err)
		os.Exit(2)
	}

	rebuild := func(path string) {
		res, err := driver.Build(path, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "build error(s):\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "rebuilt %s (types changed: %v, parser changed: %v)\n",
			path, res.TypesChanged, res.ParserChanged)
		if stats {
			printStats(res)
		}
	}

	var watchers []*driver.Watcher
	for _, f := range files {
		w, err := driver.Watch(f, rebuild)
		if err != nil {
			fmt.Fprintln(os.Stderr, "watch error:", err)
			os.Exit(2)
		}
		watchers = append(watchers, w)
		rebuild(f)
	}

	fmt.Fprintf(os.Stderr, "watching %d file(s), press Ctrl-C to stop\n", len(watchers))
	select {}
}

func printStats(r *driver.Result) {
	if r.AnalyzedOnly {
		return
	}
	table := tablewriter.NewWriter(os.Stderr)
	table.SetHeader([]string{"Rule", "Sequences", "Left Recursive", "Result Type"})
	for _, s := range r.Stats {
		table.Append([]string{s.Name, strconv.Itoa(s.Sequences), strconv.FormatBool(s.LeftRecursive), s.ResultType})
	}
	table.Render()
}

// runRepl loads a grammar and opens a line-edited session where every line
// of input is treated as a snippet to tokenize and report on. It never
// invokes the generated parser: compiling and loading generated Go code at
// runtime is out of scope.
func runRepl(grammarFile string) {
	src, err := os.ReadFile(grammarFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	toks, err := token.New(grammarFile, string(src)).Tokenize()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokenize error:", err)
		os.Exit(1)
	}
	gr, err := dslparser.New(grammarFile, toks).Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	leftrec.New(gr).Analyze()
	if err := analysis.New(grammarFile, gr).Analyze(); err != nil {
		fmt.Fprintln(os.Stderr, "analysis error:", err)
		os.Exit(1)
	}
	fmt.Printf("loaded %s: %d statement(s)\n", grammarFile, len(gr.Statements))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("pegc> ")
		if err != nil {
			break
		}
		line.AppendHistory(input)
		if strings.TrimSpace(input) == "" {
			continue
		}
		sampleToks, err := token.New("<repl>", input).Tokenize()
		if err != nil {
			fmt.Println("tokenize error:", err)
			continue
		}
		var kinds []string
		for _, tk := range sampleToks {
			kinds = append(kinds, tk.Kind.String())
		}
		fmt.Println(strings.Join(kinds, " "))
	}
}

var usagePage = `usage: %s [options] GRAMMAR_FILE_OR_GLOB

pegc generates a Go parser from a PEG grammar. By default it reads
GRAMMAR_FILE_OR_GLOB and writes <stem>_types.go and <stem>_parser.go next
to it. A pattern containing *, ?, [ or { is expanded to every matching
file (batch mode), each processed independently.

	-debug
		verbose structured logging of each pipeline stage.
	-h -help
		display this help message.
	-o FILE
		output file stem, defaults to the input file's base name.
	-receiver-name NAME
		receiver variable name of every generated rule method (default p).
	-x
		parse and analyze only, do not generate.
	-watch
		watch the input for changes and regenerate.
	-stats
		print a table of rules after a successful build.
	-config FILE
		load defaults from an INI file (defaults to ./.pegcrc if present).
	-repl GRAMMAR_FILE
		load a grammar and open an interactive line-editor session that
		tokenizes each line of sample input typed at the prompt.
	-version
		print generator version.
`

func usage() {
	fmt.Printf(usagePage, os.Args[0])
}

func argError(exit int, msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg, args...)
	fmt.Fprintln(os.Stderr)
	flag.Usage()
	os.Exit(exit)
}
