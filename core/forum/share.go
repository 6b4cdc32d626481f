// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"encoding/xml"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"codeberg.org/xeoos/xeo/i18n"
)

const (
	// ExcerptRunes bounds the description of share metadata.
	ExcerptRunes = 160

	ShareImageWidth  = 1200
	ShareImageHeight = 630
)

// ShareMeta is what link previews of a post show.
type ShareMeta struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Topic       string      `json:"topic"`
	Locale      i18n.Locale `json:"locale"`
	URL         string      `json:"url"`
	ImageURL    string      `json:"image_url"`
}

// ShareMetadata describes post for link previews in locale. An empty locale
// uses the post's own.
func ShareMetadata(post Post, locale i18n.Locale) ShareMeta {
	if locale == "" {
		locale = post.Locale
	}

	id := post.ID.String()

	return ShareMeta{
		Title:       post.Title,
		Description: Excerpt(post.Body, ExcerptRunes),
		Topic:       post.Topic,
		Locale:      locale,
		URL:         "/" + string(locale) + "/posts/" + id,
		ImageURL:    "/og/posts/" + id + ".svg",
	}
}

// Excerpt returns the visible text of an HTML fragment with whitespace
// collapsed, cut to at most n runes.
func Excerpt(body string, n int) string {
	text := body

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")

	return truncateRunes(text, n)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}

type svgDoc struct {
	XMLName xml.Name  `xml:"svg"`
	Xmlns   string    `xml:"xmlns,attr"`
	Width   int       `xml:"width,attr"`
	Height  int       `xml:"height,attr"`
	ViewBox string    `xml:"viewBox,attr"`
	Rects   []svgRect `xml:"rect"`
	Texts   []svgText `xml:"text"`
}

type svgRect struct {
	X      int    `xml:"x,attr"`
	Y      int    `xml:"y,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Fill   string `xml:"fill,attr"`
}

type svgText struct {
	X          int    `xml:"x,attr"`
	Y          int    `xml:"y,attr"`
	FontSize   int    `xml:"font-size,attr"`
	FontWeight string `xml:"font-weight,attr,omitempty"`
	FontFamily string `xml:"font-family,attr"`
	Fill       string `xml:"fill,attr"`
	Value      string `xml:",chardata"`
}

const (
	shareFont        = "Inter, 'Noto Sans CJK', sans-serif"
	titleFontSize    = 64
	titleLineWidth   = 30
	titleMaxLines    = 3
	excerptFontSize  = 32
	excerptLineWidth = 60
	excerptMaxLines  = 3
	shareMargin      = 80
)

// RenderShareImage renders the preview card of meta as an SVG document.
func RenderShareImage(meta ShareMeta) []byte {
	doc := svgDoc{
		Xmlns:   "http://www.w3.org/2000/svg",
		Width:   ShareImageWidth,
		Height:  ShareImageHeight,
		ViewBox: "0 0 1200 630",
		Rects: []svgRect{
			{Width: ShareImageWidth, Height: ShareImageHeight, Fill: "#11131a"},
			{X: 0, Y: ShareImageHeight - 12, Width: ShareImageWidth, Height: 12, Fill: "#5b8cff"},
		},
	}

	y := shareMargin + 40

	if meta.Topic != "" {
		doc.Texts = append(doc.Texts, svgText{
			X: shareMargin, Y: y, FontSize: 28, FontFamily: shareFont, Fill: "#5b8cff", Value: "#" + meta.Topic,
		})
		y += 70
	}

	for _, line := range wrap(meta.Title, titleLineWidth, titleMaxLines) {
		doc.Texts = append(doc.Texts, svgText{
			X: shareMargin, Y: y, FontSize: titleFontSize, FontWeight: "700", FontFamily: shareFont, Fill: "#ffffff", Value: line,
		})
		y += titleFontSize + 12
	}

	y += 20

	for _, line := range wrap(meta.Description, excerptLineWidth, excerptMaxLines) {
		doc.Texts = append(doc.Texts, svgText{
			X: shareMargin, Y: y, FontSize: excerptFontSize, FontFamily: shareFont, Fill: "#c4c8d4", Value: line,
		})
		y += excerptFontSize + 12
	}

	doc.Texts = append(doc.Texts, svgText{
		X: shareMargin, Y: ShareImageHeight - shareMargin + 20, FontSize: 28, FontWeight: "700",
		FontFamily: shareFont, Fill: "#ffffff", Value: "XEO OS",
	})

	out, err := xml.Marshal(doc)
	if err != nil {
		// svgDoc only holds strings and ints.
		panic(err)
	}

	return append([]byte(xml.Header), out...)
}

// runeWidth counts East Asian wide and fullwidth runes as two columns.
func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// wrap breaks s into at most maxLines lines of about cols columns, breaking
// at spaces where possible. The last line ends in an ellipsis when s does
// not fit.
func wrap(s string, cols, maxLines int) []string {
	var (
		lines []string
		line  []rune
		w     int
	)

	runes := []rune(strings.Join(strings.Fields(s), " "))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		rw := runeWidth(r)

		if w+rw > cols {
			cut := len(line)

			if sp := lastSpace(line); sp > 0 && r != ' ' {
				cut = sp
			}

			lines = append(lines, strings.TrimSpace(string(line[:cut])))
			if len(lines) == maxLines {
				lines[maxLines-1] += "…"

				return lines
			}

			rest := append([]rune(nil), line[cut:]...)
			line = rest
			w = 0

			for _, lr := range line {
				w += runeWidth(lr)
			}

			if r == ' ' && len(line) == 0 {
				continue
			}
		}

		line = append(line, r)
		w += rw
	}

	if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
		lines = append(lines, trimmed)
	}

	return lines
}

func lastSpace(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			return i
		}
	}

	return -1
}
