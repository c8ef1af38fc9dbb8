package decklens

import (
	"archive/zip"
	"encoding/xml"
	"mime"
	"path"
	"strconv"
	"strings"
)

// --- slide part XML mirror types ---
//
// Element tags match on local name only, so the p:/a: namespace prefixes
// in slide parts are irrelevant. Only direct children are matched, which
// keeps spPr/ln/rPr solidFill contexts separate.

type xmlSlideFile struct {
	CSld xmlCSld `xml:"cSld"`
}

type xmlLayoutFile struct {
	CSld xmlCSld `xml:"cSld"`
}

type xmlCSld struct {
	Name   string    `xml:"name,attr"`
	Bg     *xmlBg    `xml:"bg"`
	SpTree xmlSpTree `xml:"spTree"`
}

type xmlBg struct {
	BgPr *xmlBgPr `xml:"bgPr"`
}

type xmlBgPr struct {
	SolidFill *xmlSolidFill `xml:"solidFill"`
}

type xmlSolidFill struct {
	SrgbClr *xmlSrgbClr `xml:"srgbClr"`
}

type xmlSrgbClr struct {
	Val string `xml:"val,attr"`
}

// xmlSpTree preserves native document order across the mixed shape
// element kinds; plain struct decoding would regroup them by tag.
type xmlSpTree struct {
	Children []xmlShapeNode
}

// xmlShapeNode is one decoded child of a shape tree.
type xmlShapeNode struct {
	Sp           *xmlSp
	Pic          *xmlPic
	CxnSp        *xmlCxnSp
	GraphicFrame *xmlGraphicFrame
	GrpSp        *xmlGrpSp
}

func (t *xmlSpTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp", "pic", "cxnSp", "graphicFrame", "grpSp":
				if err := t.decodeChild(d, el); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlCNvPr struct {
	Name string `xml:"name,attr"`
}

type xmlSp struct {
	NvSpPr struct {
		CNvPr   xmlCNvPr `xml:"cNvPr"`
		CNvSpPr struct {
			TxBox string `xml:"txBox,attr"`
		} `xml:"cNvSpPr"`
		NvPr struct {
			Ph *struct {
				Type string `xml:"type,attr"`
			} `xml:"ph"`
		} `xml:"nvPr"`
	} `xml:"nvSpPr"`
	SpPr   xmlSpPr    `xml:"spPr"`
	TxBody *xmlTxBody `xml:"txBody"`
}

type xmlSpPr struct {
	Xfrm     *xmlXfrm `xml:"xfrm"`
	PrstGeom *struct {
		Prst string `xml:"prst,attr"`
	} `xml:"prstGeom"`
	CustGeom  *struct{}     `xml:"custGeom"`
	SolidFill *xmlSolidFill `xml:"solidFill"`
	Ln        *struct {
		SolidFill *xmlSolidFill `xml:"solidFill"`
	} `xml:"ln"`
}

type xmlXfrm struct {
	Off *struct {
		X int64 `xml:"x,attr"`
		Y int64 `xml:"y,attr"`
	} `xml:"off"`
	Ext *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"ext"`
}

type xmlTxBody struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlParagraph struct {
	Runs []xmlRun `xml:"r"`
}

type xmlRun struct {
	RPr *xmlRunProps `xml:"rPr"`
	T   string       `xml:"t"`
}

type xmlRunProps struct {
	Sz        string        `xml:"sz,attr"`
	B         string        `xml:"b,attr"`
	I         string        `xml:"i,attr"`
	U         string        `xml:"u,attr"`
	SolidFill *xmlSolidFill `xml:"solidFill"`
	Latin     *struct {
		Typeface string `xml:"typeface,attr"`
	} `xml:"latin"`
}

type xmlPic struct {
	NvPicPr struct {
		CNvPr xmlCNvPr `xml:"cNvPr"`
		NvPr  struct {
			VideoFile *struct{} `xml:"videoFile"`
			AudioFile *struct{} `xml:"audioFile"`
		} `xml:"nvPr"`
	} `xml:"nvPicPr"`
	BlipFill struct {
		Blip *struct {
			Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr xmlSpPr `xml:"spPr"`
}

type xmlCxnSp struct {
	NvCxnSpPr struct {
		CNvPr xmlCNvPr `xml:"cNvPr"`
	} `xml:"nvCxnSpPr"`
	SpPr xmlSpPr `xml:"spPr"`
}

type xmlGraphicFrame struct {
	NvGraphicFramePr struct {
		CNvPr xmlCNvPr `xml:"cNvPr"`
	} `xml:"nvGraphicFramePr"`
	Xfrm    *xmlXfrm `xml:"xfrm"`
	Graphic struct {
		GraphicData struct {
			URI string  `xml:"uri,attr"`
			Tbl *xmlTbl `xml:"tbl"`
		} `xml:"graphicData"`
	} `xml:"graphic"`
}

type xmlTbl struct {
	Rows []xmlTblRow `xml:"tr"`
}

type xmlTblRow struct {
	Cells []xmlTblCell `xml:"tc"`
}

type xmlTblCell struct {
	TxBody *xmlTxBody `xml:"txBody"`
	TcPr   *struct {
		SolidFill *xmlSolidFill `xml:"solidFill"`
	} `xml:"tcPr"`
}

type xmlGrpSp struct {
	NvGrpSpPr struct {
		CNvPr xmlCNvPr `xml:"cNvPr"`
	} `xml:"nvGrpSpPr"`
	GrpSpPr struct {
		Xfrm *xmlXfrm `xml:"xfrm"`
	} `xml:"grpSpPr"`
	Tree xmlSpTree
}

// grpSp holds its child shapes directly, so decode them the same way the
// shape tree does while routing the two property elements to structs.
func (g *xmlGrpSp) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "nvGrpSpPr":
				if err := d.DecodeElement(&g.NvGrpSpPr, &el); err != nil {
					return err
				}
			case "grpSpPr":
				if err := d.DecodeElement(&g.GrpSpPr, &el); err != nil {
					return err
				}
			case "sp", "pic", "cxnSp", "graphicFrame", "grpSp":
				if err := g.Tree.decodeChild(d, el); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (t *xmlSpTree) decodeChild(d *xml.Decoder, el xml.StartElement) error {
	var node xmlShapeNode
	var err error
	switch el.Name.Local {
	case "sp":
		sp := &xmlSp{}
		err = d.DecodeElement(sp, &el)
		node.Sp = sp
	case "pic":
		pic := &xmlPic{}
		err = d.DecodeElement(pic, &el)
		node.Pic = pic
	case "cxnSp":
		cxn := &xmlCxnSp{}
		err = d.DecodeElement(cxn, &el)
		node.CxnSp = cxn
	case "graphicFrame":
		gf := &xmlGraphicFrame{}
		err = d.DecodeElement(gf, &el)
		node.GraphicFrame = gf
	case "grpSp":
		grp := &xmlGrpSp{}
		err = d.DecodeElement(grp, &el)
		node.GrpSp = grp
	}
	if err != nil {
		return err
	}
	t.Children = append(t.Children, node)
	return nil
}

// --- conversion to the document model ---

// slideContext carries what shape conversion needs to resolve
// relationship targets (embedded media) against the container.
type slideContext struct {
	index    map[string]*zip.File
	rels     []xmlRel
	slideDir string
}

// readSlide reads and converts one slide part. A slide whose XML cannot
// be parsed degrades to an empty slide; only the container itself is a
// fatal failure.
func readSlide(index map[string]*zip.File, slidePath string) *Slide {
	slide := &Slide{}

	rels := readRelationships(index, relsPathFor(slidePath))
	slideDir, _ := path.Split(slidePath)
	slide.LayoutName = layoutNameFor(index, rels, slideDir)

	data, err := readZipFile(index, slidePath)
	if err != nil {
		return slide
	}
	var slideXML xmlSlideFile
	if err := xml.Unmarshal(data, &slideXML); err != nil {
		return slide
	}

	if bg := slideXML.CSld.Bg; bg != nil && bg.BgPr != nil {
		slide.Background = &Background{Fill: solidFillColor(bg.BgPr.SolidFill)}
	}

	ctx := &slideContext{index: index, rels: rels, slideDir: strings.TrimSuffix(slideDir, "/")}
	slide.Shapes = convertShapeTree(ctx, slideXML.CSld.SpTree)
	return slide
}

// layoutNameFor resolves the slide's layout part and returns its display
// name, falling back to the layout file name when the part has none.
func layoutNameFor(index map[string]*zip.File, rels []xmlRel, slideDir string) string {
	for _, rel := range rels {
		if !strings.HasSuffix(rel.Type, "/slideLayout") {
			continue
		}
		layoutPath := resolveTarget(strings.TrimSuffix(slideDir, "/"), rel.Target)
		data, err := readZipFile(index, layoutPath)
		if err != nil {
			break
		}
		var layout xmlLayoutFile
		if err := xml.Unmarshal(data, &layout); err != nil {
			break
		}
		if layout.CSld.Name != "" {
			return layout.CSld.Name
		}
		return strings.TrimSuffix(path.Base(layoutPath), ".xml")
	}
	return "Unknown"
}

func convertShapeTree(ctx *slideContext, tree xmlSpTree) []Shape {
	shapes := make([]Shape, 0, len(tree.Children))
	for _, node := range tree.Children {
		if s := convertShapeNode(ctx, node); s != nil {
			shapes = append(shapes, s)
		}
	}
	return shapes
}

func convertShapeNode(ctx *slideContext, node xmlShapeNode) Shape {
	switch {
	case node.Sp != nil:
		return convertSp(node.Sp)
	case node.Pic != nil:
		return convertPic(ctx, node.Pic)
	case node.CxnSp != nil:
		return convertCxnSp(node.CxnSp)
	case node.GraphicFrame != nil:
		return convertGraphicFrame(node.GraphicFrame)
	case node.GrpSp != nil:
		return convertGrpSp(ctx, node.GrpSp)
	default:
		return nil
	}
}

func convertSp(sp *xmlSp) Shape {
	base := baseFromSpPr(sp.NvSpPr.CNvPr.Name, &sp.SpPr)
	paragraphs := convertTxBody(sp.TxBody)

	if ph := sp.NvSpPr.NvPr.Ph; ph != nil {
		return &PlaceholderShape{BaseShape: base, PlaceholderType: ph.Type, Paragraphs: paragraphs}
	}
	if isTrueAttr(sp.NvSpPr.CNvSpPr.TxBox) {
		return &TextBoxShape{BaseShape: base, Paragraphs: paragraphs}
	}
	if sp.SpPr.CustGeom != nil {
		return &FreeformShape{BaseShape: base, Paragraphs: paragraphs}
	}
	preset := ""
	if sp.SpPr.PrstGeom != nil {
		preset = sp.SpPr.PrstGeom.Prst
	}
	if isCalloutPreset(preset) {
		return &CalloutShape{BaseShape: base, Preset: preset, Paragraphs: paragraphs}
	}
	return &AutoShapeShape{BaseShape: base, Preset: preset, Paragraphs: paragraphs}
}

func convertPic(ctx *slideContext, pic *xmlPic) Shape {
	base := baseFromSpPr(pic.NvPicPr.CNvPr.Name, &pic.SpPr)

	// OOXML represents video and audio frames as pic elements with a
	// media link; those must not count as raster pictures.
	if pic.NvPicPr.NvPr.VideoFile != nil || pic.NvPicPr.NvPr.AudioFile != nil {
		return &MediaShape{BaseShape: base}
	}

	shape := &PictureShape{BaseShape: base}
	if blip := pic.BlipFill.Blip; blip != nil && blip.Embed != "" {
		if rel := findRelByID(ctx.rels, blip.Embed); rel != nil {
			mediaPath := resolveTarget(ctx.slideDir, rel.Target)
			data, err := readZipFile(ctx.index, mediaPath)
			if err == nil {
				shape.Image = ImageRef{
					Data:     data,
					MimeType: mime.TypeByExtension(path.Ext(mediaPath)),
					FileName: path.Base(mediaPath),
				}
			} else {
				shape.Image = ImageRef{FileName: path.Base(mediaPath)}
			}
		}
	}
	return shape
}

func convertCxnSp(cxn *xmlCxnSp) Shape {
	return &LineShape{BaseShape: baseFromSpPr(cxn.NvCxnSpPr.CNvPr.Name, &cxn.SpPr)}
}

func convertGraphicFrame(gf *xmlGraphicFrame) Shape {
	base := BaseShape{Name: gf.NvGraphicFramePr.CNvPr.Name}
	applyXfrm(&base, gf.Xfrm)

	gd := gf.Graphic.GraphicData
	if gd.Tbl != nil {
		table := &TableShape{BaseShape: base}
		for _, row := range gd.Tbl.Rows {
			cells := make([]*TableCell, 0, len(row.Cells))
			for _, tc := range row.Cells {
				cell := &TableCell{Paragraphs: convertTxBody(tc.TxBody)}
				if tc.TcPr != nil {
					cell.Fill = solidFillColor(tc.TcPr.SolidFill)
				}
				cells = append(cells, cell)
			}
			table.Rows = append(table.Rows, cells)
		}
		return table
	}
	if strings.Contains(gd.URI, "/chart") {
		return &ChartShape{BaseShape: base}
	}
	return &UnknownShape{BaseShape: base, RawKind: int(KindUnknown)}
}

func convertGrpSp(ctx *slideContext, grp *xmlGrpSp) Shape {
	base := BaseShape{Name: grp.NvGrpSpPr.CNvPr.Name}
	applyXfrm(&base, grp.GrpSpPr.Xfrm)
	return &GroupShape{
		BaseShape: base,
		Shapes:    convertShapeTree(ctx, grp.Tree),
	}
}

func baseFromSpPr(name string, spPr *xmlSpPr) BaseShape {
	base := BaseShape{Name: name}
	applyXfrm(&base, spPr.Xfrm)
	base.Fill = solidFillColor(spPr.SolidFill)
	if spPr.Ln != nil {
		base.Line = solidFillColor(spPr.Ln.SolidFill)
	}
	return base
}

func applyXfrm(base *BaseShape, xfrm *xmlXfrm) {
	if xfrm == nil {
		return
	}
	if xfrm.Off != nil {
		base.Left = xfrm.Off.X
		base.Top = xfrm.Off.Y
	}
	if xfrm.Ext != nil {
		base.Width = xfrm.Ext.CX
		base.Height = xfrm.Ext.CY
	}
}

func convertTxBody(body *xmlTxBody) []*Paragraph {
	if body == nil {
		return nil
	}
	paragraphs := make([]*Paragraph, 0, len(body.Paragraphs))
	for _, p := range body.Paragraphs {
		para := &Paragraph{}
		for _, r := range p.Runs {
			para.Runs = append(para.Runs, convertRun(r))
		}
		paragraphs = append(paragraphs, para)
	}
	return paragraphs
}

func convertRun(r xmlRun) *TextRun {
	run := &TextRun{Text: r.T}
	rPr := r.RPr
	if rPr == nil {
		return run
	}
	if rPr.Latin != nil {
		run.FontName = rPr.Latin.Typeface
	}
	// sz is in hundredths of a point.
	if rPr.Sz != "" {
		if v, err := strconv.ParseFloat(rPr.Sz, 64); err == nil {
			size := v / 100
			run.Size = &size
		}
	}
	run.Bold = boolAttr(rPr.B)
	run.Italic = boolAttr(rPr.I)
	run.Underline = underlineAttr(rPr.U)
	run.Color = solidFillColor(rPr.SolidFill)
	return run
}

func solidFillColor(fill *xmlSolidFill) *RGB {
	if fill == nil || fill.SrgbClr == nil {
		return nil
	}
	return parseRGBAttr(fill.SrgbClr.Val)
}

func isTrueAttr(v string) bool {
	return v == "1" || v == "true"
}

// boolAttr maps an OOXML boolean attribute to a tri-state flag:
// absent means unspecified, not false.
func boolAttr(v string) *bool {
	switch v {
	case "1", "true":
		b := true
		return &b
	case "0", "false":
		b := false
		return &b
	default:
		return nil
	}
}

// underlineAttr treats any underline style other than "none" as set.
func underlineAttr(v string) *bool {
	switch v {
	case "":
		return nil
	case "none":
		b := false
		return &b
	default:
		b := true
		return &b
	}
}

func isCalloutPreset(preset string) bool {
	return strings.HasPrefix(preset, "callout") || strings.Contains(preset, "Callout")
}
