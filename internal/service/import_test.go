package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/errors"
)

const importOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Glass Lantern</dc:title>
    <dc:creator>R. Vale</dc:creator>
    <dc:description>&lt;p&gt;A &lt;b&gt;quiet&lt;/b&gt; fantasy.&lt;/p&gt;</dc:description>
    <dc:subject>Fantasy</dc:subject>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="cover.png" media-type="image/png"/>
    <item id="c1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2"/>
  </spine>
</package>`

func buildTestEPUB(t *testing.T, cover []byte) []byte {
	t.Helper()
	files := []struct {
		name string
		data []byte
	}{
		{"mimetype", []byte("application/epub+zip")},
		{"META-INF/container.xml", []byte(`<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`)},
		{"content.opf", []byte(importOPF)},
		{"cover.png", cover},
		{"ch1.xhtml", []byte(`<html><body><h1>Lit</h1><p>The lantern glowed.</p></body></html>`)},
		{"ch2.xhtml", []byte(`<html><head><title>Dark</title></head><body><p>It went out.</p></body></html>`)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestImportService_ImportEPUB(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")

	res, err := env.importer.ImportEPUB(env.ctx, author, buildTestEPUB(t, pngBytes(t)))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Chapters)
	assert.True(t, res.HasCover)
	assert.Equal(t, "The Glass Lantern", res.Novel.Title)
	assert.Equal(t, "A **quiet** fantasy.", res.Novel.Description)
	assert.Equal(t, []string{"fantasy"}, res.Novel.Genres)
	assert.Equal(t, author, res.Novel.AuthorID)
	assert.Equal(t, 2, res.Novel.ChapterCount)
	require.NotNil(t, res.Novel.Cover)

	chapters, err := env.chapters.List(env.ctx, res.Novel.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Lit", chapters[0].Title)
	assert.Equal(t, "Dark", chapters[1].Title)
}

func TestImportService_BadCoverIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")

	res, err := env.importer.ImportEPUB(env.ctx, author, buildTestEPUB(t, []byte("not a png")))
	require.NoError(t, err)
	assert.False(t, res.HasCover)
	assert.Nil(t, res.Novel.Cover)
}

func TestImportService_RejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")

	_, err := env.importer.ImportEPUB(env.ctx, author, nil)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = env.importer.ImportEPUB(env.ctx, author, []byte("PK not really a zip"))
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
