// Package layout describes which widgets a bar shows and where.
//
// A layout is an XML document:
//
//	<bar height="28">
//	  <start><workspaces /><window /></start>
//	  <center><clock /></center>
//	  <end><switcher provider="kube" /><group><volume /><battery /></group><notifications /></end>
//	</bar>
package layout

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ElementType identifies a bar widget.
type ElementType string

const (
	ElementTypeWorkspaces    ElementType = "workspaces"
	ElementTypeWindow        ElementType = "window"
	ElementTypeClock         ElementType = "clock"
	ElementTypeBattery       ElementType = "battery"
	ElementTypeVolume        ElementType = "volume"
	ElementTypeNetwork       ElementType = "network"
	ElementTypeSwitcher      ElementType = "switcher"
	ElementTypeMedia         ElementType = "media"
	ElementTypeNotifications ElementType = "notifications"
	ElementTypeGroup         ElementType = "group"
)

// ValidElements lists all recognized element types.
var ValidElements = map[string]ElementType{
	"workspaces":    ElementTypeWorkspaces,
	"window":        ElementTypeWindow,
	"clock":         ElementTypeClock,
	"battery":       ElementTypeBattery,
	"volume":        ElementTypeVolume,
	"network":       ElementTypeNetwork,
	"switcher":      ElementTypeSwitcher,
	"media":         ElementTypeMedia,
	"notifications": ElementTypeNotifications,
	"group":         ElementTypeGroup,
}

// Section is a region of the bar.
type Section string

const (
	SectionStart  Section = "start"
	SectionCenter Section = "center"
	SectionEnd    Section = "end"
)

// BarLayout is a parsed layout ready for widget construction.
type BarLayout struct {
	Height int // 0 = use config
	Start  []LayoutElement
	Center []LayoutElement
	End    []LayoutElement
}

// LayoutElement is a single widget, or a group of them.
type LayoutElement struct {
	Type       ElementType
	Attributes map[string]string
	Children   []LayoutElement
}

// Filter returns a copy of the layout without elements for which keep
// returns false. Groups left empty are dropped.
func (l *BarLayout) Filter(keep func(LayoutElement) bool) *BarLayout {
	return &BarLayout{
		Height: l.Height,
		Start:  filterElements(l.Start, keep),
		Center: filterElements(l.Center, keep),
		End:    filterElements(l.End, keep),
	}
}

func filterElements(elems []LayoutElement, keep func(LayoutElement) bool) []LayoutElement {
	var out []LayoutElement
	for _, e := range elems {
		if e.Type == ElementTypeGroup {
			e.Children = filterElements(e.Children, keep)
			if len(e.Children) == 0 {
				continue
			}
			out = append(out, e)
			continue
		}
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Switchers returns the provider names of every switcher element, in order.
func (l *BarLayout) Switchers() []string {
	var names []string
	var walk func([]LayoutElement)
	walk = func(elems []LayoutElement) {
		for _, e := range elems {
			if e.Type == ElementTypeSwitcher {
				names = append(names, e.Attributes["provider"])
			}
			walk(e.Children)
		}
	}
	walk(l.Start)
	walk(l.Center)
	walk(l.End)
	return names
}

// ParseTemplate parses an XML bar layout from a reader.
func ParseTemplate(r io.Reader) (*BarLayout, error) {
	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("layout has no <bar> element")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read layout: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "bar" {
			return nil, fmt.Errorf("unexpected root element: %s", se.Name.Local)
		}

		var layout BarLayout
		for _, attr := range se.Attr {
			if attr.Name.Local == "height" {
				if v, err := parsePixelValue(attr.Value); err == nil {
					layout.Height = v
				}
			}
		}
		if err := parseSections(decoder, &layout); err != nil {
			return nil, err
		}
		return &layout, nil
	}
}

// parseSections reads the <start>, <center> and <end> children of <bar>.
func parseSections(decoder *xml.Decoder, layout *BarLayout) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read section: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elems, err := parseElements(decoder)
			if err != nil {
				return err
			}
			switch Section(strings.ToLower(t.Name.Local)) {
			case SectionStart:
				layout.Start = append(layout.Start, elems...)
			case SectionCenter:
				layout.Center = append(layout.Center, elems...)
			case SectionEnd:
				layout.End = append(layout.End, elems...)
			default:
				return fmt.Errorf("unknown section: %s", t.Name.Local)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parsePixelValue parses a pixel value string (e.g., "28", "28px") to int.
func parsePixelValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// parseElements recursively parses child elements.
func parseElements(decoder *xml.Decoder) ([]LayoutElement, error) {
	var elements []LayoutElement

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read element: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elemName := strings.ToLower(t.Name.Local)
			elemType, ok := ValidElements[elemName]
			if !ok {
				return nil, fmt.Errorf("unknown element type: %s", elemName)
			}

			elem := LayoutElement{
				Type:       elemType,
				Attributes: make(map[string]string),
			}
			for _, attr := range t.Attr {
				elem.Attributes[attr.Name.Local] = attr.Value
			}
			if elemType == ElementTypeSwitcher && elem.Attributes["provider"] == "" {
				return nil, fmt.Errorf("switcher element needs a provider attribute")
			}

			children, err := parseElements(decoder)
			if err != nil {
				return nil, err
			}
			if len(children) > 0 && elemType != ElementTypeGroup {
				return nil, fmt.Errorf("element %s cannot have children", elemName)
			}
			elem.Children = children

			elements = append(elements, elem)

		case xml.EndElement:
			return elements, nil
		}
	}

	return elements, nil
}

// ParseTemplateString parses a layout from a string.
func ParseTemplateString(s string) (*BarLayout, error) {
	return ParseTemplate(strings.NewReader(s))
}

// LoadTemplate loads a layout from file.
func LoadTemplate(path string) (*BarLayout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseTemplate(f)
}

// Resolve returns the layout named by the config value: a bundled layout
// name, or a path to an XML file. Empty selects the default.
func Resolve(nameOrPath string) (*BarLayout, error) {
	if nameOrPath == "" {
		nameOrPath = "default"
	}
	if !strings.ContainsRune(nameOrPath, filepath.Separator) && filepath.Ext(nameOrPath) == "" {
		if l, ok := GetEmbeddedTemplate(nameOrPath); ok {
			return l, nil
		}
		return nil, fmt.Errorf("layout not found: %s", nameOrPath)
	}
	return LoadTemplate(nameOrPath)
}

// DefaultLayout returns the default bar layout.
func DefaultLayout() *BarLayout {
	return &BarLayout{
		Start: []LayoutElement{
			{Type: ElementTypeWorkspaces},
			{Type: ElementTypeWindow, Attributes: map[string]string{"max-chars": "60"}},
		},
		Center: []LayoutElement{
			{Type: ElementTypeClock},
		},
		End: []LayoutElement{
			{Type: ElementTypeMedia},
			{Type: ElementTypeSwitcher, Attributes: map[string]string{"provider": "kube"}},
			{Type: ElementTypeSwitcher, Attributes: map[string]string{"provider": "gcloud"}},
			{
				Type: ElementTypeGroup,
				Children: []LayoutElement{
					{Type: ElementTypeNetwork},
					{Type: ElementTypeVolume},
					{Type: ElementTypeBattery},
				},
			},
			{Type: ElementTypeNotifications},
		},
	}
}
