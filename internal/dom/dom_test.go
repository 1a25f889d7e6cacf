package dom

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomSuite struct {
	suite.Suite
}

func (s *DomSuite) buildDocument() *Document {
	doc := NewDocument("TreedocData", "1.2.0")
	doc.Root.Comment = "generated file, do not edit"

	a := NewElement("widget")
	a.SetAttribute("identifier", "speed")
	a.SetAttribute("kind", "int")
	doc.Root.AppendChild(a)

	v := NewElement("value")
	v.SetText("42")
	a.AppendChild(v)

	b := NewElement("widget")
	b.SetAttribute("identifier", "label")
	label := NewElement("value")
	label.SetText(`a <b> & "c"`)
	b.AppendChild(label)
	doc.Root.AppendChild(b)

	return doc
}

func (s *DomSuite) TestAttributeOrder() {
	e := NewElement("node")
	e.SetAttribute("b", "2")
	e.SetAttribute("a", "1")
	e.SetAttribute("c", "3")
	// 重复写入不改变位置
	e.SetAttribute("a", "10")

	attrs := e.Attrs()
	s.Require().Len(attrs, 3)
	s.Equal("b", attrs[0].Key)
	s.Equal("a", attrs[1].Key)
	s.Equal("10", attrs[1].Value)
	s.Equal("c", attrs[2].Key)

	val, ok := e.Attribute("a")
	s.True(ok)
	s.Equal("10", val)
	_, ok = e.Attribute("missing")
	s.False(ok)
}

func (s *DomSuite) TestChildrenNamed() {
	e := NewElement("list")
	for _, name := range []string{"item", "other", "item", "item"} {
		e.AppendChild(NewElement(name))
	}
	s.Len(e.ChildrenNamed("item"), 3)
	s.Nil(e.FirstChild("missing"))
	s.NotNil(e.FirstChild("other"))
}

func (s *DomSuite) TestXMLRoundTrip() {
	doc := s.buildDocument()

	var buf bytes.Buffer
	s.Require().NoError(doc.WriteXML(&buf))
	s.Contains(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`)
	s.Contains(buf.String(), "generated file, do not edit")

	loaded, err := ReadXML(&buf)
	s.Require().NoError(err)
	s.Equal("1.2.0", loaded.Version())
	s.Equal("TreedocData", loaded.Root.Name)

	widgets := loaded.Root.ChildrenNamed("widget")
	s.Require().Len(widgets, 2)

	id, ok := widgets[0].Attribute("identifier")
	s.True(ok)
	s.Equal("speed", id)
	s.Equal("42", widgets[0].FirstChild("value").Text)

	// 特殊字符经由 encoding/xml 转义后应原样还原
	s.Equal(`a <b> & "c"`, widgets[1].FirstChild("value").Text)
}

func (s *DomSuite) TestXMLTextKeepsPadding() {
	doc := NewDocument("TreedocData", "1.2.0")
	v := NewElement("value")
	v.SetText("  padded value  ")
	doc.Root.AppendChild(v)

	var buf bytes.Buffer
	s.Require().NoError(doc.WriteXML(&buf))

	// 缩进产生的纯空白块被丢弃，文本自身的首尾空白原样保留。
	loaded, err := ReadXML(&buf)
	s.Require().NoError(err)
	s.Equal("  padded value  ", loaded.Root.FirstChild("value").Text)
}

func (s *DomSuite) TestJSONRoundTrip() {
	doc := s.buildDocument()

	var buf bytes.Buffer
	s.Require().NoError(doc.WriteJSON(&buf))

	loaded, err := ReadJSON(&buf)
	s.Require().NoError(err)
	s.Equal("1.2.0", loaded.Version())

	widgets := loaded.Root.ChildrenNamed("widget")
	s.Require().Len(widgets, 2)
	s.Equal("42", widgets[0].FirstChild("value").Text)
	s.Equal(`a <b> & "c"`, widgets[1].FirstChild("value").Text)
}

func (s *DomSuite) TestReadXMLMalformed() {
	_, err := ReadXML(strings.NewReader("<a><b></a>"))
	s.Error(err)

	_, err = ReadXML(strings.NewReader("<a></a><b></b>"))
	s.Error(err)

	_, err = ReadXML(strings.NewReader(""))
	s.Error(err)
}

func TestDom(t *testing.T) {
	suite.Run(t, new(DomSuite))
}
