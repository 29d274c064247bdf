package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/heliumdb"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

type cmdopts struct {
	Dump       bool   `long:"dump"`
	Encoding   string `long:"encoding"`
	NoBlanks   bool   `long:"noblanks"`
	Info       bool   `long:"info"`
	Table      bool   `long:"table"`
	Tree       bool   `long:"tree"`
	Lookup     string `long:"lookup"`
	Pre        int    `long:"pre" default:"-1"`
	Load       string `long:"load"`
	Save       string `long:"save"`
	Compress   string `long:"compress" default:"none"`
	CPUProfile string `long:"cpuprofile"`
	Iterations int    `long:"iterations" default:"1"`
	Verbose    bool   `short:"v" long:"verbose"`
	Version    bool   `long:"version"`
}

type input struct {
	name string
	data []byte
}

func main() {
	os.Exit(_main())
}

func showVersion() {
	fmt.Printf("heliumdb-ns: using heliumdb version %s\n", heliumdb.Version)
}

func showUsage() {
	fmt.Printf(`Usage : heliumdb-ns [options] XMLfiles ...
	Load the XML files into one database and report on its namespaces
	--dump : serialize every document
	--encoding=LABEL : output encoding used by --dump
	--noblanks : drop whitespace only text nodes
	--info : list the namespace URIs with their prefixes
	--table : list the namespace declarations by node
	--tree : print the namespace tree
	--lookup=PREFIX --pre=N : resolve PREFIX at node N
	--load=FILE : start from a database written by --save
	--save=FILE : write the database to FILE
	--compress=none|lz4|zstd : compression used by --save
	--cpuprofile=FILE : write a CPU profile of loading the inputs
	--iterations=N : load the inputs N times while profiling
	--verbose : trace operations to stderr
	--version : display the version of the library used
`)
}

func readInputs(args []string) ([]input, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []input{{name: "stdin", data: data}}, nil
	}

	list := make([]input, len(args))
	for i, f := range args {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		list[i] = input{name: f, data: data}
	}
	return list, nil
}

// load parses the inputs in parallel and adds them to db in the order
// they were given.
func load(ctx context.Context, db *heliumdb.DB, inputs []input, options ...heliumdb.ParseOption) error {
	frags := make([]*heliumdb.Fragment, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		g.Go(func() error {
			frag, err := heliumdb.ParseFragment(gctx, bytes.NewReader(in.data), options...)
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			frags[i] = frag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, frag := range frags {
		if _, err := db.AddFragment(ctx, inputs[i].name, frag); err != nil {
			return fmt.Errorf("%s: %w", inputs[i].name, err)
		}
	}
	return nil
}

func profile(ctx context.Context, file string, iterations int, inputs []input, options ...heliumdb.ParseOption) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		return err
	}
	defer pprof.StopCPUProfile()

	for range iterations {
		if err := load(ctx, heliumdb.New(), inputs, options...); err != nil {
			return err
		}
	}
	return nil
}

func openDB(ctx context.Context, file string, options ...heliumdb.DBOption) (*heliumdb.DB, error) {
	if file == "" {
		return heliumdb.New(options...), nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return heliumdb.Open(ctx, f, options...)
}

func save(ctx context.Context, db *heliumdb.DB, file string, c heliumdb.Compression) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := db.Flush(ctx, f, heliumdb.WithCompression(c)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func report(db *heliumdb.DB, opts cmdopts) error {
	ctx := context.Background()
	if opts.Dump {
		for _, doc := range db.Documents() {
			if err := db.Serialize(ctx, os.Stdout, doc, heliumdb.WithOutputEncoding(opts.Encoding)); err != nil {
				return err
			}
		}
	}
	if opts.Info {
		fmt.Print(db.NamespaceInfo())
		if uri, ok := db.DefaultNamespace(); ok {
			fmt.Printf("default namespace: %q\n", uri)
		}
	}
	if opts.Table {
		fmt.Print(db.NamespaceTable(0, db.Len()))
	}
	if opts.Tree {
		fmt.Print(db.NamespaceTree())
	}
	if opts.Lookup != "" || opts.Pre >= 0 {
		if opts.Pre < 0 {
			return fmt.Errorf("--lookup needs --pre")
		}
		uri, err := db.LookupNamespace(opts.Pre, opts.Lookup)
		if err != nil {
			return err
		}
		fmt.Printf("%q\n", uri)
	}
	return nil
}

func _main() int {
	opts := cmdopts{}
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		showUsage()
		return 1
	}

	if opts.Version {
		showVersion()
		return 0
	}

	compression, err := heliumdb.ParseCompression(opts.Compress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.Background()

	var inputs []input
	switch {
	case len(args) > 0 || !term.IsTerminal(int(os.Stdin.Fd())):
		inputs, err = readInputs(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	case opts.Load == "":
		showUsage()
		return 1
	}

	var parseOptions []heliumdb.ParseOption
	if opts.NoBlanks {
		parseOptions = append(parseOptions, heliumdb.WithStripWhitespace(true))
	}

	if opts.CPUProfile != "" {
		if err := profile(ctx, opts.CPUProfile, opts.Iterations, inputs, parseOptions...); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	}

	db, err := openDB(ctx, opts.Load, heliumdb.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	if err := load(ctx, db, inputs, parseOptions...); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	if err := report(db, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	if opts.Save != "" {
		if err := save(ctx, db, opts.Save, compression); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	}
	return 0
}
