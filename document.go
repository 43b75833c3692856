package xsdgate

import (
	"bytes"
	"errors"
	"io"

	"github.com/jacoelho/xsd/pkg/xmlstream"
	"github.com/jacoelho/xsd/pkg/xmltext"

	xerrors "github.com/jacoelho/xsdgate/errors"
)

// QName is a namespace-qualified element name.
type QName struct {
	Namespace string
	Local     string
}

// String renders the name in {namespace}local form.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// Document is a well-formed XML document ready to be checked against a schema.
// It is produced by a Parser and owned by the caller that checks it.
type Document struct {
	name     string
	data     []byte
	root     QName
	elements int
}

// Name returns the source name the document was parsed from.
func (d *Document) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Root returns the qualified name of the document element.
func (d *Document) Root() QName {
	if d == nil {
		return QName{}
	}
	return d.root
}

// Elements returns the number of elements in the document.
func (d *Document) Elements() int {
	if d == nil {
		return 0
	}
	return d.elements
}

// Size returns the document size in bytes.
func (d *Document) Size() int {
	if d == nil {
		return 0
	}
	return len(d.data)
}

func (d *Document) reader() io.Reader {
	return bytes.NewReader(d.data)
}

type scanResult struct {
	root     QName
	elements int
}

// scanXML reads data to EOF and reports the root element. The decoder rejects
// unbalanced tags, multiple roots and content outside the root.
func scanXML(data []byte, opts []xmlstream.Option) (scanResult, error) {
	r, err := xmlstream.NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		return scanResult{}, err
	}

	var res scanResult
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return scanResult{}, err
		}
		if ev.Kind != xmlstream.EventStartElement {
			continue
		}
		if res.elements == 0 {
			res.root = QName{Namespace: string(ev.Name.Namespace), Local: string(ev.Name.Local)}
		}
		res.elements++
	}
	if res.elements == 0 {
		return scanResult{}, errors.New("missing root element")
	}
	return res, nil
}

func syntaxDiagnostic(code xerrors.Code, err error) xerrors.Diagnostic {
	d := xerrors.NewDiagnostic(code, err.Error())
	var syntaxErr *xmltext.SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr != nil {
		d.Line = syntaxErr.Line
		d.Column = syntaxErr.Column
		if syntaxErr.Err != nil {
			d.Message = syntaxErr.Err.Error()
		}
	}
	return d
}
