package content

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slideXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>
    <a:p><a:r><a:t>%s</a:t></a:r><a:r><a:t> continued</a:t></a:r></a:p>
    <a:p><a:r><a:t>Second line</a:t></a:r></a:p>
  </p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`

func writePPTX(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestPPTXConverter_SlidesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writePPTX(t, path, map[string]string{
		"ppt/slides/slide10.xml":            fmtSlide("Ten"),
		"ppt/slides/slide2.xml":             fmtSlide("Two"),
		"ppt/slides/slide1.xml":             fmtSlide("One"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": fmtSlide("Layout"),
		"[Content_Types].xml":               "<Types/>",
	})

	docs, err := NewPPTXConverter().Convert(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "One continued\nSecond line", docs[0].Content)
	assert.Equal(t, 1, docs[0].Metadata["slide"])
	assert.Equal(t, 2, docs[1].Metadata["slide"])
	assert.Equal(t, 10, docs[2].Metadata["slide"])
}

func TestPPTXConverter_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := NewPPTXConverter().Convert(context.Background(), path)
	assert.Error(t, err)
}

func TestConverterSet_UnknownExtension(t *testing.T) {
	_, err := DefaultConverters().Convert(context.Background(), "notes.docx")
	assert.Error(t, err)
}

func fmtSlide(title string) string {
	return fmt.Sprintf(slideXML, title)
}
