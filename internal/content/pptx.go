package content

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/micocomia/5902Group5/internal/models"
)

// PPTXConverter pulls the text runs out of each slide of a PowerPoint file.
type PPTXConverter struct{}

func NewPPTXConverter() *PPTXConverter {
	return &PPTXConverter{}
}

// Convert returns one document per slide with text, in slide order.
func (c *PPTXConverter) Convert(ctx context.Context, filePath string) ([]models.RawDocument, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PPTX: %w", err)
	}
	defer archive.Close()

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range archive.File {
		if n, ok := slideNumber(f.Name); ok {
			slides = append(slides, slide{number: n, file: f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	docs := make([]models.RawDocument, 0, len(slides))
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := slideText(s.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read slide %d: %w", s.number, err)
		}
		if text == "" {
			continue
		}

		docs = append(docs, models.RawDocument{
			Content: text,
			Metadata: map[string]any{
				models.MetaSource: filePath,
				"slide":           s.number,
			},
		})
	}
	return docs, nil
}

// slideNumber matches ppt/slides/slideN.xml.
func slideNumber(name string) (int, bool) {
	dir, file := path.Split(name)
	if dir != "ppt/slides/" || !strings.HasPrefix(file, "slide") || !strings.HasSuffix(file, ".xml") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file, "slide"), ".xml"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// slideText joins the a:t runs of a slide, one paragraph (a:p) per line.
func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		lines   []string
		current strings.Builder
		inText  bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(current.String()); line != "" {
					lines = append(lines, line)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if line := strings.TrimSpace(current.String()); line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
