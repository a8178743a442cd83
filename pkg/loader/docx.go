package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xhad/docintel/internal/models"
)

const (
	docxDocumentPart = "word/document.xml"
	docxRelsPart     = "word/_rels/document.xml.rels"
)

// xmlNode is a generic element tree; order of children is preserved.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n xmlNode) attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    struct {
		Paragraphs []xmlNode `xml:"p"`
	} `xml:"body"`
}

type docxRelationships struct {
	Relationships []docxRelationship `xml:"Relationship"`
}

type docxRelationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// loadDOCX concatenates the text of the body paragraphs with no separator,
// then captions every package part whose relationship target mentions
// "image", in relationship order.
func (l *Loader) loadDOCX(ctx context.Context, data []byte, collector *captionCollector) (*models.ExtractedContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, models.ExtractionError("failed to open DOCX package", err)
	}

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	docPart, ok := parts[docxDocumentPart]
	if !ok {
		return nil, models.ExtractionError("DOCX package has no main document", nil)
	}

	raw, err := readPart(docPart)
	if err != nil {
		return nil, models.ExtractionError("failed to read main document", err)
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, models.ExtractionError("failed to parse main document", err)
	}

	var text strings.Builder
	for _, p := range doc.Body.Paragraphs {
		text.WriteString(paragraphText(p))
	}

	if relsPart, ok := parts[docxRelsPart]; ok {
		if err := l.collectDOCXImages(ctx, relsPart, parts, collector); err != nil {
			return nil, err
		}
	}

	return &models.ExtractedContent{Text: text.String()}, nil
}

func (l *Loader) collectDOCXImages(ctx context.Context, relsPart *zip.File, parts map[string]*zip.File, collector *captionCollector) error {
	raw, err := readPart(relsPart)
	if err != nil {
		return models.ExtractionError("failed to read document relationships", err)
	}

	var rels docxRelationships
	if err := xml.Unmarshal(raw, &rels); err != nil {
		return models.ExtractionError("failed to parse document relationships", err)
	}

	for _, rel := range rels.Relationships {
		if !strings.Contains(rel.Target, "image") {
			continue
		}
		if strings.EqualFold(rel.TargetMode, "External") {
			l.logger.Warn().Str("rel", rel.ID).Str("target", rel.Target).Msg("skipping external image")
			continue
		}

		name := resolvePartName(rel.Target)
		part, ok := parts[name]
		if !ok {
			return models.ExtractionError(fmt.Sprintf("relationship %s points to missing part %s", rel.ID, name), nil)
		}

		blob, err := readPart(part)
		if err != nil {
			return models.ExtractionError(fmt.Sprintf("failed to read %s", name), err)
		}

		if err := collector.collect(ctx, blob); err != nil {
			return err
		}
	}

	return nil
}

// resolvePartName resolves a relationship target against word/.
func resolvePartName(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join("word", target)
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// paragraphText collects the text of the runs directly inside p, including
// runs wrapped in hyperlinks.
func paragraphText(p xmlNode) string {
	var b strings.Builder
	for _, child := range p.Children {
		switch child.XMLName.Local {
		case "r":
			writeRunText(&b, child)
		case "hyperlink":
			for _, r := range child.Children {
				if r.XMLName.Local == "r" {
					writeRunText(&b, r)
				}
			}
		}
	}
	return b.String()
}

func writeRunText(b *strings.Builder, r xmlNode) {
	for _, child := range r.Children {
		switch child.XMLName.Local {
		case "t":
			b.WriteString(child.Text)
		case "tab", "ptab":
			b.WriteByte('\t')
		case "br":
			switch child.attr("type") {
			case "", "textWrapping":
				b.WriteByte('\n')
			}
		case "cr":
			b.WriteByte('\n')
		case "noBreakHyphen":
			b.WriteByte('-')
		}
	}
}
