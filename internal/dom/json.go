package dom

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/lk2023060901/treedoc-garden-go/internal/json"
)

// jsonAttr 与 jsonElement 是文档树的 JSON 投影。
// 属性以数组表示以保持写入顺序（JSON 对象的键序不可依赖）。
type jsonAttr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type jsonElement struct {
	Name     string         `json:"name"`
	Attrs    []jsonAttr     `json:"attrs,omitempty"`
	Comment  string         `json:"comment,omitempty"`
	Text     string         `json:"text,omitempty"`
	Children []*jsonElement `json:"children,omitempty"`
}

// WriteJSON 将文档以 JSON 形式写入 w。
// 与 WriteXML 承载完全相同的信息，两种形式可以互相往返。
func (d *Document) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(toJSONElement(d.Root), "", xmlIndent)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadJSON 从 r 中解析 JSON 形式的文档树。
func ReadJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	var root jsonElement
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "malformed document")
	}
	if root.Name == "" {
		return nil, errors.New("document has no root element")
	}
	return newLoadedDocument(fromJSONElement(&root))
}

func toJSONElement(e *Element) *jsonElement {
	return &jsonElement{
		Name: e.Name,
		Attrs: lo.Map(e.attrs, func(a Attr, _ int) jsonAttr {
			return jsonAttr{Key: a.Key, Value: a.Value}
		}),
		Comment:  e.Comment,
		Text:     e.Text,
		Children: lo.Map(e.Children, func(c *Element, _ int) *jsonElement {
			return toJSONElement(c)
		}),
	}
}

func fromJSONElement(je *jsonElement) *Element {
	el := NewElement(je.Name)
	for _, a := range je.Attrs {
		el.SetAttribute(a.Key, a.Value)
	}
	el.Comment = je.Comment
	el.Text = je.Text
	for _, c := range je.Children {
		el.AppendChild(fromJSONElement(c))
	}
	return el
}
