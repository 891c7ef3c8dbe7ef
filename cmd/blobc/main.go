package main

import (
	"flag"
	"log"
	"os"

	"github.com/clarete/blobc"
	"github.com/clarete/blobc/codegen"
)

type args struct {
	inputPath *string

	outputLang *string
	outputPath *string
	auxPath    *string

	importDirs stringList
	merge      *bool
}

// stringList collects a repeatable `-I` flag, mirroring the teacher's
// main.go flag-per-field style generalized to a repeatable one.
type stringList []string

func (l *stringList) String() string { return "" }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func readArgs() *args {
	a := &args{
		outputLang: flag.String("l", "c", "Target generator name"),
		outputPath: flag.String("o", "/dev/stdout", "Path to the primary output file"),
		auxPath:    flag.String("a", "", "Path to the auxiliary output file, if the generator emits one"),
		merge:      flag.Bool("m", false, "Merge imports: strip is_import before generating"),
	}
	flag.Var(&a.importDirs, "I", "Import directory (repeatable)")
	flag.Parse()
	if len(a.importDirs) == 0 {
		a.importDirs = []string{"."}
	}
	if flag.NArg() < 1 {
		log.Fatal("no input schema given")
	}
	input := flag.Arg(0)
	a.inputPath = &input
	return a
}

func main() {
	log.SetFlags(0)
	a := readArgs()

	loader := blobc.NewRelativeImportLoader()
	ts, err := blobc.Compile(loader, *a.inputPath, a.importDirs)
	if err != nil {
		log.Fatal(err)
	}

	if *a.merge {
		blobc.MergeImports(ts)
	}

	out, err := os.Create(*a.outputPath)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	switch *a.outputLang {
	case "c":
		gen := codegen.NewCGenerator(*a.inputPath, out)
		if err := gen.WriteHeader(); err != nil {
			log.Fatal(err)
		}
		if err := codegen.Run(ts, gen, *a.merge); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unsupported target language %q (only 'c' is wired up)", *a.outputLang)
	}

	if *a.auxPath != "" {
		aux, err := os.Create(*a.auxPath)
		if err != nil {
			log.Fatal(err)
		}
		defer aux.Close()
	}
}
