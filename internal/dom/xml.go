package dom

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

const xmlIndent = "    "

// WriteXML 将文档以缩进 XML 的形式写入 w。
// 输出以 XML 声明开头，随后是完整的根元素子树。
func (d *Document) WriteXML(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", xmlIndent)

	if err := enc.EncodeToken(xml.ProcInst{
		Target: "xml",
		Inst:   []byte(`version="1.0" encoding="UTF-8"`),
	}); err != nil {
		return err
	}
	if err := encodeElement(enc, d.Root); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.attrs {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: a.Key},
			Value: a.Value,
		})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Comment != "" {
		if err := enc.EncodeToken(xml.Comment(e.Comment)); err != nil {
			return err
		}
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// ReadXML 从 r 中解析一棵文档树。
//
// 解析失败（格式错误、缺少根元素、根元素外出现多余元素）时返回错误；
// 版本属性缺失不视为解析错误，由上层决定兼容策略。
func ReadXML(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(t.Name.Local)
			for _, a := range t.Attr {
				el.SetAttribute(a.Name.Local, a.Value)
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("document has more than one root element")
				}
				root = el
			} else {
				stack[len(stack)-1].AppendChild(el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			// 纯空白块是缩进产物，丢弃；含内容的块原样保留，
			// 首尾空白属于文本值本身。
			if strings.TrimSpace(text) == "" {
				continue
			}
			cur := stack[len(stack)-1]
			cur.Text += text

		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if cur.Comment == "" {
				cur.Comment = string(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, errors.New("unexpected end of document")
	}
	return newLoadedDocument(root)
}
