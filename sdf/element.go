// Package sdf reads Simulation Description Format documents into a generic element tree.
package sdf

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/milk9111/jointsim/common"
)

// ErrMissing is returned by the typed getters when a child element does not exist.
var ErrMissing = errors.New("sdf: element missing")

// Element is one node of an SDF document.
type Element struct {
	Name     string
	Attrs    map[string]string
	Value    string
	Children []*Element
	Parent   *Element
}

// Parse decodes an SDF document and returns its root element.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root, cur *Element
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode SDF data")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr)), Parent: cur}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if cur == nil {
				if root != nil {
					return nil, errors.Errorf("sdf: multiple root elements (%q after %q)", el.Name, root.Name)
				}
				root = el
			} else {
				cur.Children = append(cur.Children, el)
			}
			cur = el
			text.Reset()
		case xml.CharData:
			if cur != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if cur == nil {
				return nil, errors.Errorf("sdf: unexpected end element %q", t.Name.Local)
			}
			if len(cur.Children) == 0 {
				cur.Value = strings.TrimSpace(text.String())
			}
			text.Reset()
			cur = cur.Parent
		}
	}
	if root == nil {
		return nil, errors.New("sdf: empty document")
	}
	return root, nil
}

// ReadFile parses the SDF document at path.
func ReadFile(path string) (*Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read SDF file")
	}
	root, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "sdf: %s", path)
	}
	return root, nil
}

// HasElement reports whether e has a direct child called name.
func (e *Element) HasElement(name string) bool {
	return e.Element(name) != nil
}

// Element returns the first direct child called name, or nil.
func (e *Element) Element(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Elements returns every direct child called name, in document order.
func (e *Element) Elements(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the attribute value and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.Attrs[name]
	return v, ok
}

// Path returns the slash separated element names from the root to e.
func (e *Element) Path() string {
	if e == nil {
		return ""
	}
	if e.Parent == nil {
		return e.Name
	}
	return e.Parent.Path() + "/" + e.Name
}

// Get returns the value of the child called name.
func (e *Element) Get(name string) (string, error) {
	c := e.Element(name)
	if c == nil {
		return "", errors.Wrapf(ErrMissing, "<%s> in <%s>", name, e.Path())
	}
	return c.Value, nil
}

// GetOr returns the value of the child called name, or def when absent.
func (e *Element) GetOr(name, def string) string {
	v, err := e.Get(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

// Float returns the child called name parsed as a float.
func (e *Element) Float(name string) (float64, error) {
	s, err := e.Get(name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "sdf: <%s> in <%s>", name, e.Path())
	}
	return f, nil
}

// FloatOr returns the child called name parsed as a float, or def when absent.
// A present but malformed value is still an error.
func (e *Element) FloatOr(name string, def float64) (float64, error) {
	if !e.HasElement(name) {
		return def, nil
	}
	return e.Float(name)
}

// BoolOr returns the child called name parsed as a bool, or def when absent.
func (e *Element) BoolOr(name string, def bool) (bool, error) {
	if !e.HasElement(name) {
		return def, nil
	}
	s, _ := e.Get(name)
	switch strings.ToLower(s) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, errors.Errorf("sdf: <%s> in <%s>: invalid bool %q", name, e.Path(), s)
}

// IntOr returns the child called name parsed as an int, or def when absent.
func (e *Element) IntOr(name string, def int) (int, error) {
	if !e.HasElement(name) {
		return def, nil
	}
	s, _ := e.Get(name)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "sdf: <%s> in <%s>", name, e.Path())
	}
	return n, nil
}

// Vector3 returns the child called name parsed as "x y z".
func (e *Element) Vector3(name string) (mgl64.Vec3, error) {
	s, err := e.Get(name)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	f, err := parseFloats(s, 3)
	if err != nil {
		return mgl64.Vec3{}, errors.Wrapf(err, "sdf: <%s> in <%s>", name, e.Path())
	}
	return mgl64.Vec3{f[0], f[1], f[2]}, nil
}

// Pose returns the child called name parsed as "x y z roll pitch yaw".
// An absent pose is the identity.
func (e *Element) Pose(name string) (common.Pose, error) {
	if !e.HasElement(name) {
		return common.PoseIdent(), nil
	}
	s, _ := e.Get(name)
	f, err := parseFloats(s, 6)
	if err != nil {
		return common.Pose{}, errors.Wrapf(err, "sdf: <%s> in <%s>", name, e.Path())
	}
	return common.PoseFromXYZRPY(f[0], f[1], f[2], f[3], f[4], f[5]), nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, errors.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
