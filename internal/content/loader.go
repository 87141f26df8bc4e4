// Package content turns a directory tree of course materials into
// metadata-tagged documents ready for chunking and indexing.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/micocomia/5902Group5/internal/models"

	"go.uber.org/zap"
)

var skipFiles = map[string]struct{}{
	".DS_Store": {},
	".keep":     {},
	".keep 2":   {},
	".gitkeep":  {},
	"Thumbs.db": {},
}

var supportedExtensions = map[string]struct{}{
	".json": {},
	".pdf":  {},
	".pptx": {},
	".py":   {},
	".txt":  {},
	".md":   {},
}

// Loader reads verified course content from disk. PDF and PPTX files are
// handed to the converter; everything else is parsed in-process.
type Loader struct {
	converter DocumentConverter
	logger    *zap.Logger
}

// NewLoader builds a loader. A nil converter makes PDF and PPTX files yield no documents.
func NewLoader(converter DocumentConverter, logger *zap.Logger) *Loader {
	return &Loader{
		converter: converter,
		logger:    logger,
	}
}

// ScanCourses lists the course directories under baseDir in name order.
func (l *Loader) ScanCourses(baseDir string) []models.Course {
	return ScanCourses(baseDir, l.logger)
}

// ScanCourses lists the immediate, non-hidden subdirectories of baseDir as
// courses. Directory names follow {code}_{name}_{term}; missing parts fall
// back to the raw name for the code and "unknown" for the term.
func ScanCourses(baseDir string, logger *zap.Logger) []models.Course {
	courses := []models.Course{}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		logger.Warn("Verified content directory is not readable",
			zap.String("dir", baseDir),
			zap.Error(err),
		)
		return courses
	}

	// ReadDir already sorts by name
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		dir := filepath.Join(baseDir, name)
		if !isDir(dir) {
			continue
		}
		courses = append(courses, ParseCourseDir(name, dir))
	}

	logger.Info("Scanned verified courses",
		zap.String("dir", baseDir),
		zap.Int("courses", len(courses)),
	)
	return courses
}

// ParseCourseDir derives course metadata from a directory name.
func ParseCourseDir(name, dir string) models.Course {
	parts := strings.SplitN(name, "_", 3)
	course := models.Course{
		Code:      name,
		Name:      name,
		Term:      models.UnknownTerm,
		Directory: dir,
	}
	switch len(parts) {
	case 3:
		course.Term = strings.ReplaceAll(parts[2], "-", " ")
		fallthrough
	case 2:
		course.Code = parts[0]
		course.Name = strings.ReplaceAll(parts[1], "-", " ")
	}
	return course
}

// LoadFile parses a single file. It never fails: skipped, unsupported,
// empty or broken files all produce an empty result, the latter two logged.
func (l *Loader) LoadFile(ctx context.Context, path string) (docs []models.Document) {
	base := filepath.Base(path)
	if _, skip := skipFiles[base]; skip || strings.HasPrefix(base, ".") {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := supportedExtensions[ext]; !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic while loading file",
				zap.String("file", path),
				zap.Any("panic", r),
			)
			docs = nil
		}
	}()

	var err error
	switch ext {
	case ".json":
		docs, err = loadJSON(path)
	case ".pdf", ".pptx":
		docs, err = l.convert(ctx, path)
	default:
		docs, err = loadText(path)
	}
	if err != nil {
		l.logger.Error("Failed to load file",
			zap.String("file", path),
			zap.Error(err),
		)
		return nil
	}
	return docs
}

// LoadCourseDocuments walks the category subdirectories of a course and tags
// every loaded document with its provenance.
func (l *Loader) LoadCourseDocuments(ctx context.Context, course models.Course) []models.Document {
	var documents []models.Document

	for _, category := range models.ContentCategories {
		categoryDir := filepath.Join(course.Directory, string(category))
		if !isDir(categoryDir) {
			continue
		}

		for _, path := range listFiles(categoryDir, l.logger) {
			if ctx.Err() != nil {
				l.logger.Warn("Course loading cancelled",
					zap.String("course_code", course.Code),
					zap.Error(ctx.Err()),
				)
				return documents
			}

			stamp := course.Metadata()
			stamp[models.MetaSourceType] = models.StringValue(string(models.SourceTypeVerifiedContent))
			stamp[models.MetaContentCategory] = models.StringValue(string(category))
			stamp[models.MetaFileName] = models.StringValue(filepath.Base(path))

			for _, doc := range l.LoadFile(ctx, path) {
				documents = append(documents, models.NewDocument(doc.Content, doc.Metadata.Merge(stamp)))
			}
		}
	}

	l.logger.Info("Loaded course documents",
		zap.String("course_code", course.Code),
		zap.String("course_name", course.Name),
		zap.Int("documents", len(documents)),
	)
	return documents
}

// LoadAllVerifiedContent loads every course under baseDir into one flat list.
func (l *Loader) LoadAllVerifiedContent(ctx context.Context, baseDir string) []models.Document {
	var all []models.Document
	for _, course := range l.ScanCourses(baseDir) {
		all = append(all, l.LoadCourseDocuments(ctx, course)...)
	}

	l.logger.Info("Loaded verified content",
		zap.String("dir", baseDir),
		zap.Int("documents", len(all)),
	)
	return all
}

func (l *Loader) convert(ctx context.Context, path string) ([]models.Document, error) {
	if l.converter == nil {
		l.logger.Warn("No document converter configured, skipping file", zap.String("file", path))
		return nil, nil
	}

	raw, err := l.converter.Convert(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}

	docs := make([]models.Document, 0, len(raw))
	for _, r := range raw {
		doc := r.Document()
		if doc.IsEmpty() {
			continue
		}
		if _, ok := doc.Metadata[models.MetaSource]; !ok {
			doc.Metadata[models.MetaSource] = models.StringValue(path)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type jsonContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func loadJSON(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var parsed jsonContent
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if strings.TrimSpace(parsed.Content) == "" {
		return nil, nil
	}

	return []models.Document{models.NewDocument(parsed.Content, models.Metadata{
		models.MetaTitle:  models.StringValue(parsed.Title),
		models.MetaSource: models.StringValue(path),
	})}, nil
}

func loadText(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := decodeLossy(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return []models.Document{models.NewDocument(text, models.Metadata{
		models.MetaSource: models.StringValue(path),
	})}, nil
}

// decodeLossy replaces every byte that is not part of a valid UTF-8
// sequence with U+FFFD, one replacement per byte.
func decodeLossy(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		b.WriteRune(r)
		data = data[size:]
	}
	return b.String()
}

// listFiles returns every regular file below root, sorted by path. Hidden
// directories are not descended into.
func listFiles(root string, logger *zap.Logger) []string {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Failed to walk directory", zap.String("dir", root), zap.Error(err))
	}
	sort.Strings(files)
	return files
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
