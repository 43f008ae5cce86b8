package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/Polyglot/core/batch"
	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/convert"
	"github.com/FocuswithJustin/Polyglot/core/tm"
	"github.com/FocuswithJustin/Polyglot/internal/archive"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/FocuswithJustin/Polyglot/internal/validation"
	"github.com/google/uuid"
)

// OutputFlags select where a modified XLIFF file is written.
type OutputFlags struct {
	Out     string `short:"o" help:"Output file (default: overwrite the input, - for stdout)"`
	Version string `name:"xliff-version" short:"V" help:"XLIFF version to write (1.2, 2.0, 2.1, 2.2)"`
}

// save writes files for input honoring the flags. Without an explicit
// version the input dialect is kept.
func (o OutputFlags) save(rt *Runtime, input string, from convert.Format, files []*content.Transformation) (string, error) {
	path := o.Out
	if path == "" {
		path = input
	}
	version := o.Version
	if version == "" && from == convert.FormatXLIFF12 {
		version = "1.2"
	}
	out, err := convert.Serialize(files, serializeOptions(rt, version))
	if err != nil {
		return "", err
	}
	return path, writeOutput(rt, path, out)
}

// PseudoCmd fills untranslated segments with pseudo-translations, which
// exposes hard-coded strings and truncation before real translation.
type PseudoCmd struct {
	OutputFlags

	Input   string `arg:"" help:"XLIFF file" type:"existingfile"`
	Expand  int    `help:"Percent of extra length to add" default:"30"`
	Workers int    `help:"Concurrent batches (default from configuration)"`
}

func (c *PseudoCmd) Run(rt *Runtime) error {
	start := time.Now()
	files, from, err := readXLIFF(c.Input)
	if err != nil {
		return err
	}

	limits := batch.Limits{MaxItems: rt.Config.Batch.MaxItems, MaxChars: rt.Config.Batch.MaxChars}
	batches := batch.Split(batch.Collect(files, batch.PlainOnly(batch.Untranslated)), limits)
	workers := c.Workers
	if workers == 0 {
		workers = rt.Config.Batch.Workers
	}

	ctx := logging.WithRunID(rt.Context, uuid.NewString())
	logging.InfoContext(ctx, "pseudo run", "input", c.Input, "batches", len(batches), "workers", workers)
	n, err := batch.Run(ctx, batches, workers, pseudoTranslator(c.Expand))
	if err != nil {
		return err
	}
	path, err := c.save(rt, c.Input, from, files)
	if err != nil {
		return err
	}
	logging.Conversion("pseudo", c.Input, path, time.Since(start), "segments", n, "batches", len(batches))
	fmt.Fprintf(rt.Stdout, "pseudo-translated %d segments in %d batches\n", n, len(batches))
	return nil
}

var accents = map[rune]rune{
	'a': 'á', 'c': 'ç', 'e': 'é', 'i': 'í', 'n': 'ñ', 'o': 'ó', 'u': 'ú', 'y': 'ý',
	'A': 'Á', 'C': 'Ç', 'E': 'É', 'I': 'Í', 'N': 'Ñ', 'O': 'Ó', 'U': 'Ú', 'Y': 'Ý',
}

// Pseudo returns s with accented vowels, padded by expand percent and
// wrapped in brackets.
func Pseudo(s string, expand int) string {
	var b strings.Builder
	b.WriteString("[")
	n := 0
	for _, r := range s {
		if a, ok := accents[r]; ok {
			r = a
		}
		b.WriteRune(r)
		n++
	}
	if pad := n * expand / 100; pad > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Repeat("~", pad))
	}
	b.WriteString("]")
	return b.String()
}

func pseudoTranslator(expand int) batch.Translator {
	return batch.TranslatorFunc(func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, s := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = Pseudo(s, expand)
		}
		return out, nil
	})
}

// TMGroup contains translation memory operations.
type TMGroup struct {
	Learn TMLearnCmd `cmd:"" help:"Store translated segments of XLIFF files"`
	Fill  TMFillCmd  `cmd:"" help:"Fill untranslated segments from the memory"`
	Stats TMStatsCmd `cmd:"" help:"Print the number of stored entries"`
}

// TMFlags select the memory database.
type TMFlags struct {
	DB string `name:"db" help:"Translation memory database (default from configuration)" type:"path"`
}

func (f TMFlags) path(rt *Runtime) (string, error) {
	path := f.DB
	if path == "" {
		path = rt.Config.TMPath
	}
	return path, validation.ValidatePath(path)
}

func (f TMFlags) open(rt *Runtime) (*tm.Memory, error) {
	path, err := f.path(rt)
	if err != nil {
		return nil, err
	}
	return tm.Open(path)
}

// TMLearnCmd stores translations.
type TMLearnCmd struct {
	TMFlags
	Inputs []string `arg:"" help:"XLIFF files" type:"existingfile"`
}

func (c *TMLearnCmd) Run(rt *Runtime) error {
	mem, err := c.open(rt)
	if err != nil {
		return err
	}
	defer mem.Close()

	total := 0
	for _, input := range c.Inputs {
		files, _, err := readXLIFF(input)
		if err != nil {
			return err
		}
		n, err := mem.Learn(rt.Context, files)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		logging.Info("tm learn", "input", input, "segments", n)
		total += n
	}
	fmt.Fprintf(rt.Stdout, "learned %d segments\n", total)
	return nil
}

// TMFillCmd pre-translates from the memory.
type TMFillCmd struct {
	TMFlags
	OutputFlags
	Input string `arg:"" help:"XLIFF file" type:"existingfile"`
}

func (c *TMFillCmd) Run(rt *Runtime) error {
	start := time.Now()
	mem, err := c.open(rt)
	if err != nil {
		return err
	}
	defer mem.Close()

	files, from, err := readXLIFF(c.Input)
	if err != nil {
		return err
	}
	n, err := mem.Fill(rt.Context, files)
	if err != nil {
		return err
	}
	path, err := c.save(rt, c.Input, from, files)
	if err != nil {
		return err
	}
	logging.Conversion("tm fill", c.Input, path, time.Since(start), "segments", n, "cache_hit_rate", mem.CacheStats().HitRate())
	fmt.Fprintf(rt.Stdout, "filled %d segments\n", n)
	return nil
}

// TMStatsCmd prints memory statistics.
type TMStatsCmd struct {
	TMFlags
}

func (c *TMStatsCmd) Run(rt *Runtime) error {
	path, err := c.path(rt)
	if err != nil {
		return err
	}
	mem, err := tm.OpenReadOnly(path)
	if err != nil {
		return err
	}
	defer mem.Close()
	n, err := mem.Count(rt.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "%d entries\n", n)
	return nil
}

// BundleGroup contains bundle operations.
type BundleGroup struct {
	Create BundleCreateCmd `cmd:"" help:"Create a bundle archive from files"`
	Verify BundleVerifyCmd `cmd:"" help:"Verify bundle checksums"`
	List   BundleListCmd   `cmd:"" help:"List the files of a bundle"`
}

// BundleCreateCmd creates a bundle.
type BundleCreateCmd struct {
	LanguageFlags
	Out    string   `short:"o" required:"" help:"Bundle path (.tar.xz, .tar.gz or .tar)" type:"path"`
	Inputs []string `arg:"" help:"Files to bundle" type:"existingfile"`
}

func (c *BundleCreateCmd) Run(rt *Runtime) error {
	if !archive.IsSupportedFormat(c.Out) {
		return fmt.Errorf("unsupported bundle extension: %s", c.Out)
	}
	var entries []archive.Entry
	for _, input := range c.Inputs {
		name, err := validation.SanitizePath(".", filepath.Base(input))
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		data, err := validation.ReadFile(input)
		if err != nil {
			logging.FileError("read", input, err)
			return err
		}
		entries = append(entries, archive.Entry{Name: name, Data: data})
	}

	src, trg := c.resolve(rt)
	m := archive.Manifest{SourceLanguage: src, TargetLanguage: trg}
	if err := archive.CreateBundle(c.Out, m, entries); err != nil {
		return err
	}
	logging.Info("bundle created", "path", c.Out, "files", len(entries))
	fmt.Fprintf(rt.Stdout, "%s: %d files\n", c.Out, len(entries))
	return nil
}

// BundleVerifyCmd verifies a bundle.
type BundleVerifyCmd struct {
	Path string `arg:"" help:"Bundle path" type:"existingfile"`
}

func (c *BundleVerifyCmd) Run(rt *Runtime) error {
	if err := archive.Verify(c.Path); err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	fmt.Fprintf(rt.Stdout, "%s: OK\n", c.Path)
	return nil
}

// BundleListCmd lists a bundle.
type BundleListCmd struct {
	Path string `arg:"" help:"Bundle path" type:"existingfile"`
}

func (c *BundleListCmd) Run(rt *Runtime) error {
	m, err := archive.ReadManifest(c.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "bundle %s (created %s, %s>%s)\n", archive.BundleID(c.Path), m.CreatedAt, m.SourceLanguage, m.TargetLanguage)
	for _, f := range m.Files {
		fmt.Fprintf(rt.Stdout, "%10d  %s  %s\n", f.Size, shortHash(f.BLAKE3), f.Name)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
