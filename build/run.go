// Package build drives a resolution pass: it loads the entry database,
// parses the source document set, distributes cited entries to bibliography
// placeholders and writes the transformed documents out.
package build

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"bibc/archive"
	"bibc/bib"
	"bibc/doctree"
	"bibc/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("resolve")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	dbPath := cmd.String("database")
	if len(dbPath) == 0 {
		return errors.New("no entry database has been specified")
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	entries, err := loadDatabase(dbPath, log)
	if err != nil {
		return err
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst),
		zap.String("database", dbPath), zap.Int("entries", entries.Len()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, entries, log)
}

func loadDatabase(path string, log *zap.Logger) (*bib.EntryRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open entry database: %w", err)
	}
	defer f.Close()

	entries, err := bib.LoadDatabase(f, bib.PlainFormatter{}, log)
	if err != nil {
		return nil, fmt.Errorf("unable to read entry database (%s): %w", path, err)
	}
	return entries, nil
}

// document is a single parsed source document. Docname is the slash
// separated path relative to the input source, it survives into output
// naming and anchors.
type document struct {
	docname string
	tree    *doctree.Node
}

// process handles the core resolution logic independently of CLI framework.
// It determines the input type (directory, archive, or single file), parses
// the whole document set, distributes entries and rewrites every document.
func process(ctx context.Context, src, dst string, entries *bib.EntryRegistry, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	docs, err := loadDocuments(ctx, src, log)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents were found in (%s)", src)
	}

	reg := bib.NewRegistry()
	col := newCollector(reg, entries, &env.Cfg.Bibliography)
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := col.collect(d.tree, d.docname, log); err != nil {
			return err
		}
	}
	col.resolve(log)

	// single transform instance, enumeration continues across documents
	transforms := []bib.PostTransform{
		bib.NewBibliographyTransform(reg, &env.Cfg.Bibliography),
		bib.EmphasisRepair{},
	}

	var result error
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := resolveDocument(d, dst, transforms, env, log); err != nil {
			log.Error("Unable to resolve document", zap.String("document", d.docname), zap.Error(err))
			result = multierr.Append(result, fmt.Errorf("%s: %w", d.docname, err))
		}
	}
	return result
}

// loadDocuments parses the document set in natural name order so results do
// not depend on file system enumeration quirks.
func loadDocuments(ctx context.Context, src string, log *zap.Logger) ([]document, error) {
	env := state.EnvFromContext(ctx)

	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	if fi.Mode().IsDir() {
		return loadDir(ctx, src, log)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("unexpected path mode for (%s)", src)
	}
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		return loadArchive(ctx, src, log)
	}
	if !matchExtension(src, env.Cfg.Document.Extensions) {
		return nil, fmt.Errorf("input was not recognized as document source (%s)", src)
	}

	file, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := parseDocument(file, filepath.Base(src), env, log)
	if err != nil {
		return nil, err
	}
	return []document{*doc}, nil
}

func loadDir(ctx context.Context, dir string, log *zap.Logger) ([]document, error) {
	env := state.EnvFromContext(ctx)

	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() || !matchExtension(path, env.Cfg.Document.Extensions) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool { return natural.Less(paths[i], paths[j]) })

	var docs []document
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to read document", zap.String("file", path), zap.Error(err))
			continue
		}

		doc, err := parseDocument(file, filepath.ToSlash(rel), env, log)
		file.Close()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if len(docs) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return docs, nil
}

func loadArchive(ctx context.Context, path string, log *zap.Logger) ([]document, error) {
	env := state.EnvFromContext(ctx)

	match := func(name string) bool {
		return matchExtension(name, env.Cfg.Document.Extensions)
	}
	var docs []document
	err := archive.Walk(path, match, newNameDecoder(env), func(container string, f *zip.File, name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to read document in archive",
				zap.String("archive", container), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		doc, err := parseDocument(r, name, env, log)
		if err != nil {
			return err
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to process archive: %w", err)
	}
	if len(docs) == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return docs, nil
}

func parseDocument(r io.Reader, docname string, env *state.LocalEnv, log *zap.Logger) (*document, error) {
	tree, err := doctree.Parse(r, docname, &env.Cfg.Bibliography, log)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document source (%s): %w", docname, err)
	}
	log.Debug("Document parsed", zap.String("document", docname))
	return &document{docname: docname, tree: tree}, nil
}

func newNameDecoder(env *state.LocalEnv) *encoding.Decoder {
	if env.CodePage == nil {
		return nil
	}
	return env.CodePage.NewDecoder()
}

func matchExtension(name string, extensions []string) bool {
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// resolveDocument runs the transform chain over a single document and writes
// the result out.
func resolveDocument(d document, dst string, transforms []bib.PostTransform, env *state.LocalEnv, log *zap.Logger) (rerr error) {
	var outputName string

	log.Info("Resolution starting", zap.String("document", d.docname))
	defer func(start time.Time) {
		// when multiple documents are being processed we do not want one bad
		// tree to stop the whole set
		if r := recover(); r != nil {
			log.Error("Resolution ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("resolution panic: %v", r)
		} else {
			log.Info("Resolution completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	if err := bib.RunPostTransforms(d.tree, log, transforms...); err != nil {
		return err
	}

	outputName = buildOutputPath(d.docname, documentTitle(d.tree), dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer out.Close()

	if err := doctree.Write(d.tree, out); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store resolution result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s", strings.ReplaceAll(d.docname, "/", "_")), outputName)
	}
	return nil
}

// documentTitle returns the text of the first title in the document, if any.
func documentTitle(tree *doctree.Node) string {
	titles := doctree.FindAll(tree, doctree.KindTitle)
	if len(titles) == 0 {
		return ""
	}
	return titles[0].AsPlainText()
}
