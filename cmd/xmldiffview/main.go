package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	xdv "github.com/dannyswat/xmldiffview"
	"github.com/dannyswat/xmldiffview/internal/config"
	"github.com/dannyswat/xmldiffview/render"
)

const usage = `usage: xmldiffview [flags] <baseline.xml> <diffgram.xml>

Applies a diffgram to its baseline document and writes the annotated result.

Flags:
   -config     TOML configuration file
   -format     output format: text or html (default text)
   -o          output file (default stdout)
   -color      colour text output
   -side       side-by-side text output
   -v          debug logging to stderr
`

var (
	configFlag = flag.String("config", "", "configuration file")
	formatFlag = flag.String("format", "", "output format")
	outFlag    = flag.String("o", "", "output file")
	colorFlag  = flag.Bool("color", false, "colour text output")
	sideFlag   = flag.Bool("side", false, "side-by-side text output")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	log.SetFlags(0)
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
		log.Fatal(err)
	}
}

func run(baselinePath, diffgramPath string) error {
	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.LoadFromPath(*configFlag); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = *formatFlag
		case "color":
			cfg.Color = *colorFlag
		case "side":
			cfg.SideBySide = *sideFlag
		case "v":
			cfg.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	res, err := load(xdv.NewMerger(xdv.WithLogger(logger)), baselinePath, diffgramPath)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch cfg.Format {
	case config.FormatHTML:
		r := render.NewHTMLRenderer()
		r.Title, r.Indent, r.ShowIgnored = cfg.Title, cfg.Indent, cfg.ShowIgnored
		return r.Render(out, res)
	default:
		r := render.NewTextRenderer()
		r.Indent, r.ShowIgnored, r.Color = cfg.Indent, cfg.ShowIgnored, cfg.Color
		r.SideBySide, r.PaneWidth = cfg.SideBySide, cfg.PaneWidth
		return r.Render(out, res)
	}
}

// load opens both inputs and releases them once the merge returns.
func load(m *xdv.Merger, baselinePath, diffgramPath string) (*xdv.Result, error) {
	baseline, err := os.Open(baselinePath)
	if err != nil {
		return nil, err
	}
	defer baseline.Close()
	diffgram, err := os.Open(diffgramPath)
	if err != nil {
		return nil, err
	}
	defer diffgram.Close()
	return m.Load(baseline, diffgram)
}
