package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/convert"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/FocuswithJustin/Polyglot/internal/validation"
)

// LanguageFlags override the configured language pair.
type LanguageFlags struct {
	SourceLanguage string `name:"source-language" short:"s" help:"Source language (BCP 47)"`
	TargetLanguage string `name:"target-language" short:"t" help:"Target language (BCP 47)"`
}

func (l LanguageFlags) resolve(rt *Runtime) (string, string) {
	src, trg := rt.Config.SourceLanguage, rt.Config.TargetLanguage
	if l.SourceLanguage != "" {
		src = l.SourceLanguage
	}
	if l.TargetLanguage != "" {
		trg = l.TargetLanguage
	}
	return src, trg
}

// serializeOptions returns the output options for an explicit version
// flag, falling back to the configuration.
func serializeOptions(rt *Runtime, version string) convert.SerializeOptions {
	if version == "" {
		version = rt.Config.XLIFFVersion
	}
	return convert.SerializeOptions{Version: version, Indent: rt.Config.Indent}
}

// readXLIFF reads and parses an XLIFF document.
func readXLIFF(path string) ([]*content.Transformation, convert.Format, error) {
	data, err := validation.ReadFile(path)
	if err != nil {
		logging.FileError("read", path, err)
		return nil, "", err
	}
	format, err := convert.Detect(data, path)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	if !format.IsXLIFF() {
		return nil, "", fmt.Errorf("%s: %w", path, errors.NewUnsupportedFormat(string(format), "expected an XLIFF document"))
	}
	files, _, err := convert.FromContent(data, filepath.Base(path), convert.Options{Format: format})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return files, format, nil
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(rt *Runtime, path string, data []byte) error {
	if path == "-" {
		_, err := rt.Stdout.Write(data)
		return err
	}
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logging.FileError("write", path, err)
		return err
	}
	return nil
}

// ExtractCmd extracts native documents into XLIFF.
type ExtractCmd struct {
	LanguageFlags

	Inputs  []string `arg:"" help:"HTML or plain text files" type:"existingfile"`
	Out     string   `short:"o" help:"Output directory (default: next to each input)" type:"path"`
	Format  string   `help:"Input format (auto, html, text)" default:"auto"`
	Version string   `name:"xliff-version" short:"V" help:"XLIFF version to write (1.2, 2.0, 2.1, 2.2)"`
}

func (c *ExtractCmd) Run(rt *Runtime) error {
	format, err := convert.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	if format.IsXLIFF() {
		return fmt.Errorf("extract reads HTML or text, not %s", format)
	}
	src, trg := c.resolve(rt)

	for _, input := range c.Inputs {
		start := time.Now()
		data, err := validation.ReadFile(input)
		if err != nil {
			logging.FileError("read", input, err)
			return err
		}
		files, detected, err := convert.FromContent(data, filepath.Base(input), convert.Options{
			Format:         format,
			SourceLanguage: src,
			TargetLanguage: trg,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if detected.IsXLIFF() {
			return fmt.Errorf("%s is already an XLIFF document", input)
		}

		out, err := convert.Serialize(files, serializeOptions(rt, c.Version))
		if err != nil {
			return err
		}
		path, err := validation.OutputPath(input, c.Out, ".xlf")
		if err != nil {
			return err
		}
		if err := writeOutput(rt, path, out); err != nil {
			return err
		}
		p := files[0].Progress()
		logging.Conversion("extract", input, path, time.Since(start), "format", string(detected), "units", p.Units)
		fmt.Fprintf(rt.Stdout, "%s -> %s (%d units)\n", input, path, p.Units)
	}
	return nil
}

// MergeCmd writes translated documents.
type MergeCmd struct {
	Inputs []string `arg:"" help:"XLIFF files produced by extract" type:"existingfile"`
	Out    string   `short:"o" help:"Output directory (default: next to each input)" type:"path"`
}

func (c *MergeCmd) Run(rt *Runtime) error {
	for _, input := range c.Inputs {
		start := time.Now()
		files, _, err := readXLIFF(input)
		if err != nil {
			return err
		}
		for _, f := range files {
			data, err := convert.Merge(f)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			dir := c.Out
			if dir == "" {
				dir = filepath.Dir(input)
			}
			name := mergedName(f)
			if err := validation.ValidateFilename(name); err != nil {
				return fmt.Errorf("%s: original %q: %w", input, f.OriginalReference, err)
			}
			path := filepath.Join(dir, name)
			if err := writeOutput(rt, path, data); err != nil {
				return err
			}
			logging.Conversion("merge", input, path, time.Since(start))
			fmt.Fprintf(rt.Stdout, "%s -> %s\n", input, path)
		}
	}
	return nil
}

// mergedName inserts the target language before the extension of the
// original name, so merging never overwrites the source document.
func mergedName(f *content.Transformation) string {
	name := filepath.Base(filepath.FromSlash(f.OriginalReference))
	if name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	lang := f.TargetLanguage
	if lang == "" {
		lang = "translated"
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + lang + ext
}

// ConvertCmd converts between XLIFF versions.
type ConvertCmd struct {
	Input   string `arg:"" help:"XLIFF file" type:"existingfile"`
	Out     string `short:"o" required:"" help:"Output file (- for stdout)"`
	Version string `name:"xliff-version" short:"V" help:"XLIFF version to write (1.2, 2.0, 2.1, 2.2)"`
}

func (c *ConvertCmd) Run(rt *Runtime) error {
	start := time.Now()
	files, from, err := readXLIFF(c.Input)
	if err != nil {
		return err
	}
	opts := serializeOptions(rt, c.Version)
	out, err := convert.Serialize(files, opts)
	if err != nil {
		return err
	}
	if err := writeOutput(rt, c.Out, out); err != nil {
		return err
	}
	logging.Conversion("convert", c.Input, c.Out, time.Since(start), "from", string(from), "version", opts.Version)
	return nil
}

// InfoCmd summarizes XLIFF documents.
type InfoCmd struct {
	Inputs []string `arg:"" help:"XLIFF files" type:"existingfile"`
	JSON   bool     `help:"Print JSON instead of a table"`
}

// FileInfo is the summary of one file element.
type FileInfo struct {
	Document       string `json:"document"`
	ID             string `json:"id,omitempty"`
	Original       string `json:"original,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	Units          int    `json:"units"`
	Segments       int    `json:"segments"`
	Initial        int    `json:"initial"`
	Translated     int    `json:"translated"`
	Reviewed       int    `json:"reviewed"`
	Final          int    `json:"final"`
}

func (c *InfoCmd) Run(rt *Runtime) error {
	var infos []FileInfo
	for _, input := range c.Inputs {
		files, _, err := readXLIFF(input)
		if err != nil {
			return err
		}
		for _, f := range files {
			p := f.Progress()
			infos = append(infos, FileInfo{
				Document:       input,
				ID:             f.ID,
				Original:       f.OriginalReference,
				SourceLanguage: f.SourceLanguage,
				TargetLanguage: f.TargetLanguage,
				Units:          p.Units,
				Segments:       p.Segments,
				Initial:        p.Initial,
				Translated:     p.Translated,
				Reviewed:       p.Reviewed,
				Final:          p.Final,
			})
		}
	}

	if c.JSON {
		enc := json.NewEncoder(rt.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	tw := tabwriter.NewWriter(rt.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tORIGINAL\tLANGS\tUNITS\tSEGMENTS\tINITIAL\tTRANSLATED\tREVIEWED\tFINAL")
	for _, i := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s>%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i.Document, i.Original, i.SourceLanguage, i.TargetLanguage,
			i.Units, i.Segments, i.Initial, i.Translated, i.Reviewed, i.Final)
	}
	return tw.Flush()
}
