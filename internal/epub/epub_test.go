package epub

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/errors"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const packageXML = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Glass Lantern</dc:title>
    <dc:creator>R. Vale</dc:creator>
    <dc:description>&lt;p&gt;A &lt;b&gt;quiet&lt;/b&gt; fantasy.&lt;/p&gt;</dc:description>
    <dc:subject>Fantasy</dc:subject>
    <dc:subject>Slice of Life</dc:subject>
    <dc:language>en</dc:language>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="images/cover.png" media-type="image/png"/>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="blank" href="text/blank.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="nav" linear="no"/>
    <itemref idref="c1"/>
    <itemref idref="blank"/>
    <itemref idref="c2"/>
  </spine>
</package>`

const chapter1 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>ch1</title></head>
<body><h1>Chapter One</h1><p class="first">The lantern <em>flickered</em>.</p><script>x()</script></body></html>`

const chapter2 = `<html><head><title>The Road</title></head><body><p>Morning came.</p></body></html>`

const blank = `<html><head><title>blank</title></head><body><div> </div></body></html>`

func buildEPUB(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func validFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf":      packageXML,
		"OEBPS/images/cover.png": "PNGDATA",
		"OEBPS/nav.xhtml":        "<html><body><p>nav</p></body></html>",
		"OEBPS/text/ch1.xhtml":   chapter1,
		"OEBPS/text/blank.xhtml": blank,
		"OEBPS/text/ch2.xhtml":   chapter2,
	}
}

func TestParse(t *testing.T) {
	data := buildEPUB(t, validFiles())

	book, err := Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, "The Glass Lantern", book.Title)
	assert.Equal(t, "R. Vale", book.Author)
	assert.Equal(t, "<p>A <b>quiet</b> fantasy.</p>", book.Description)
	assert.Equal(t, []string{"Fantasy", "Slice of Life"}, book.Subjects)
	assert.Equal(t, "en", book.Language)

	require.NotNil(t, book.Cover)
	assert.Equal(t, "image/png", book.Cover.MediaType)
	assert.Equal(t, []byte("PNGDATA"), book.Cover.Data)

	require.Len(t, book.Chapters, 2)
	assert.Equal(t, "Chapter One", book.Chapters[0].Title)
	assert.Equal(t, "<h1>Chapter One</h1><p>The lantern <em>flickered</em>.</p>", book.Chapters[0].HTML)
	assert.Equal(t, "OEBPS/text/ch1.xhtml", book.Chapters[0].Href)
	assert.Equal(t, "The Road", book.Chapters[1].Title, "falls back to the document title")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing container", func(f map[string]string) { delete(f, "META-INF/container.xml") }},
		{"missing package", func(f map[string]string) { delete(f, "OEBPS/content.opf") }},
		{"missing chapter file", func(f map[string]string) { delete(f, "OEBPS/text/ch1.xhtml") }},
		{"no readable chapters", func(f map[string]string) {
			f["OEBPS/text/ch1.xhtml"] = blank
			f["OEBPS/text/ch2.xhtml"] = blank
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validFiles()
			tt.mutate(files)
			data := buildEPUB(t, files)

			_, err := Parse(bytes.NewReader(data), int64(len(data)))
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
		})
	}
}

func TestParse_NotZip(t *testing.T) {
	data := []byte("plain text")
	_, err := Parse(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
