package decklens

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// relNS is the OOXML relationships attribute namespace (r:id, r:embed).
const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// maxZipEntrySize is the maximum allowed size for a single file extracted
// from a ZIP. This prevents zip bomb attacks. 50 MB is generous for any
// legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the limit for the container file itself.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// Open reads a PPTX file from disk into the analysis document model.
// Failure to open the container is the only fatal error class; damaged
// individual parts degrade to absent attributes.
func Open(pathName string) (*Presentation, error) {
	f, err := os.Open(pathName)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return ReadFrom(f, info.Size())
}

// ReadFrom reads a PPTX from an io.ReaderAt with the given size.
func ReadFrom(r io.ReaderAt, size int64) (*Presentation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid reader size: %d", size)
	}
	if size > int64(maxZipTotalSize) {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries)
	}
	return readPresentation(zr)
}

// zipIndex builds a map from file name to *zip.File for O(1) lookups.
func zipIndex(zr *zip.Reader) map[string]*zip.File {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m[f.Name] = f
	}
	return m
}

func readZipFile(index map[string]*zip.File, name string) ([]byte, error) {
	f, ok := index[name]
	if !ok {
		return nil, fmt.Errorf("file not found in zip: %s", name)
	}
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
	}
	return data, nil
}

// --- Relationship reading ---

type xmlRel struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlRels struct {
	XMLName       xml.Name `xml:"Relationships"`
	Relationships []xmlRel `xml:"Relationship"`
}

func readRelationships(index map[string]*zip.File, partPath string) []xmlRel {
	data, err := readZipFile(index, partPath)
	if err != nil {
		return nil // relationships file may not exist
	}
	var rels xmlRels
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	return rels.Relationships
}

// relsPathFor returns the _rels part path for a given part.
func relsPathFor(partPath string) string {
	dir, base := path.Split(partPath)
	return dir + "_rels/" + base + ".rels"
}

// resolveTarget resolves a relationship target relative to the directory
// of the part that declared it ("../media/image1.png" and friends).
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(baseDir, target))
}

func findRelByID(rels []xmlRel, id string) *xmlRel {
	for i := range rels {
		if rels[i].ID == id {
			return &rels[i]
		}
	}
	return nil
}

// --- presentation.xml ---

type xmlPresentationFile struct {
	SldMasterIDs []xmlRelIDRef `xml:"sldMasterIdLst>sldMasterId"`
	SldIDs       []xmlRelIDRef `xml:"sldIdLst>sldId"`
	SldSz        *xmlSldSz     `xml:"sldSz"`
}

type xmlRelIDRef struct {
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type xmlSldSz struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

// readPresentation walks presentation.xml, the slide masters and every
// slide part, assembling the document model in declared slide order.
func readPresentation(zr *zip.Reader) (*Presentation, error) {
	index := zipIndex(zr)

	data, err := readZipFile(index, "ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("not a presentation container: %w", err)
	}
	var presXML xmlPresentationFile
	if err := xml.Unmarshal(data, &presXML); err != nil {
		return nil, fmt.Errorf("failed to parse presentation.xml: %w", err)
	}

	pres := &Presentation{}
	if presXML.SldSz != nil {
		pres.SlideWidth = presXML.SldSz.CX
		pres.SlideHeight = presXML.SldSz.CY
	}

	presRels := readRelationships(index, "ppt/_rels/presentation.xml.rels")

	// Masters and their layout counts.
	for _, ref := range presXML.SldMasterIDs {
		rel := findRelByID(presRels, ref.RID)
		if rel == nil {
			continue
		}
		pres.MasterCount++
		masterPath := resolveTarget("ppt", rel.Target)
		masterRels := readRelationships(index, relsPathFor(masterPath))
		for _, mr := range masterRels {
			if strings.HasSuffix(mr.Type, "/slideLayout") {
				pres.LayoutCount++
			}
		}
	}

	// Slides in sldIdLst order.
	for _, ref := range presXML.SldIDs {
		rel := findRelByID(presRels, ref.RID)
		if rel == nil {
			continue
		}
		slidePath := resolveTarget("ppt", rel.Target)
		slide := readSlide(index, slidePath)
		pres.Slides = append(pres.Slides, slide)
	}

	return pres, nil
}
