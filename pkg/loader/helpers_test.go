package loader_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubCaptioner records every staged image it is asked about.
type stubCaptioner struct {
	mu     sync.Mutex
	err    error
	paths  []string
	bounds []image.Point
}

func (s *stubCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths = append(s.paths, imagePath)
	if s.err != nil {
		return "", s.err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		s.bounds = append(s.bounds, image.Pt(cfg.Width, cfg.Height))
	}

	return fmt.Sprintf("caption %d", len(s.paths)), nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type docxRel struct {
	id, target, mode string
}

type docxFixture struct {
	body  string
	rels  []docxRel
	media map[string][]byte
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

func buildDOCX(t *testing.T, fx docxFixture) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	write("[Content_Types].xml", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="png" ContentType="image/png"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))

	write("word/document.xml", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document `+wordNS+`><w:body>`+fx.body+`</w:body></w:document>`))

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, rel := range fx.rels {
		mode := ""
		if rel.mode != "" {
			mode = fmt.Sprintf(` TargetMode="%s"`, rel.mode)
		}
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"%s/>`,
			rel.id, rel.target, mode)
	}
	rels.WriteString(`</Relationships>`)
	write("word/_rels/document.xml.rels", []byte(rels.String()))

	for name, data := range fx.media {
		write(name, data)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a minimal PDF with one line of Helvetica text per page.
// Each page listed in imagePages also draws an RGB image, 2 pixels high and
// 2+n pixels wide for the nth listed page, so extraction order is visible.
func buildPDF(pages []string, imagePages ...int) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // filled in once the page tree exists
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var kids []string
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)

		if n := slices.Index(imagePages, i); n >= 0 {
			width, height := 2+n, 2
			pixels := make([]byte, 0, width*height*3)
			for p := 0; p < width*height; p++ {
				pixels = append(pixels, byte(60*p), byte(255-40*p), byte(90*n))
			}
			img := add(fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream", width, height, len(pixels), pixels))
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", img)
			content += "\nq 144 0 0 144 72 400 cm /Im1 Do Q"
		}

		stream := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>", pagesObj, resources, stream))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)

	return buf.Bytes()
}
