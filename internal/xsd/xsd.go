// Package xsd reads the XML schema Access writes when a table is exported
// to XML and compares it with a parsed table definition.
//
// Access annotates each column element with od:jetType:
//
//	<xsd:element name="Customers">
//	  <xsd:complexType><xsd:sequence>
//	    <xsd:element name="ID" minOccurs="1" od:jetType="autonumber" type="xsd:int"/>
//	    <xsd:element name="Name" minOccurs="0" od:jetType="text">
//	      <xsd:simpleType><xsd:restriction base="xsd:string">
//	        <xsd:maxLength value="50"/>
//	      </xsd:restriction></xsd:simpleType>
//	    </xsd:element>
//	  </xsd:sequence></xsd:complexType>
//	</xsd:element>
package xsd

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
	"github.com/FocuswithJustin/jetdb/core/jet"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
)

// Namespace prefixes vary between Access versions, so match on local names.
var (
	tablesExpr    = xpath.MustCompile(`/*[local-name()='schema']/*[local-name()='element'][@name!='dataroot']`)
	columnsExpr   = xpath.MustCompile(`*[local-name()='complexType']/*[local-name()='sequence']/*[local-name()='element']`)
	maxLengthExpr = xpath.MustCompile(`.//*[local-name()='maxLength']`)
)

// ColumnSchema is one column element.
type ColumnSchema struct {
	Name      string
	JetType   string
	Required  bool
	MaxLength int // 0 when absent
}

// TableSchema is one table element.
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}

// Column returns the column named name.
func (t *TableSchema) Column(name string) (ColumnSchema, bool) {
	i := slices.IndexFunc(t.Columns, func(c ColumnSchema) bool { return c.Name == name })
	if i < 0 {
		return ColumnSchema{}, false
	}
	return t.Columns[i], true
}

// Schema is a parsed Access XSD.
type Schema struct {
	Tables []TableSchema
}

// Table returns the table named name.
func (s *Schema) Table(name string) (*TableSchema, error) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], nil
		}
	}
	return nil, apperrors.NewNotFound("xsd table", name)
}

// Parse reads an Access XSD document.
func Parse(r io.Reader) (*Schema, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XSD: %w", err)
	}

	schema := &Schema{}
	for _, tn := range xmlquery.QuerySelectorAll(root, tablesExpr) {
		ts := TableSchema{Name: attr(tn, "name")}
		for _, cn := range xmlquery.QuerySelectorAll(tn, columnsExpr) {
			col := ColumnSchema{
				Name:     attr(cn, "name"),
				JetType:  attr(cn, "jetType"),
				Required: attr(cn, "minOccurs") == "1",
			}
			if ml := xmlquery.QuerySelector(cn, maxLengthExpr); ml != nil {
				n, err := strconv.Atoi(attr(ml, "value"))
				if err != nil {
					return nil, fmt.Errorf("column %s.%s maxLength: %w", ts.Name, col.Name, err)
				}
				col.MaxLength = n
			}
			ts.Columns = append(ts.Columns, col)
		}
		schema.Tables = append(schema.Tables, ts)
	}
	if len(schema.Tables) == 0 {
		return nil, apperrors.NewFormat("xsd", "no table elements found")
	}
	return schema, nil
}

// attr returns the value of the attribute with the given local name.
func attr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// jetTypes maps od:jetType values to the column types that may store them.
var jetTypes = map[string][]jet.ColumnType{
	"autonumber":    {jet.ColumnTypeLong, jet.ColumnTypeRepID},
	"text":          {jet.ColumnTypeText},
	"memo":          {jet.ColumnTypeMemo},
	"hyperlink":     {jet.ColumnTypeMemo},
	"byte":          {jet.ColumnTypeByte},
	"integer":       {jet.ColumnTypeInteger},
	"longinteger":   {jet.ColumnTypeLong},
	"single":        {jet.ColumnTypeFloat},
	"double":        {jet.ColumnTypeDouble},
	"currency":      {jet.ColumnTypeCurrency},
	"datetime":      {jet.ColumnTypeDateTime, jet.ColumnTypeDateTimeExtended},
	"yesno":         {jet.ColumnTypeBoolean},
	"oleobject":     {jet.ColumnTypeOLE},
	"replicationid": {jet.ColumnTypeRepID},
	"decimal":       {jet.ColumnTypeNumeric},
	"bigint":        {jet.ColumnTypeBigInt},
}

// Mismatch is one difference between a table and its schema.
type Mismatch struct {
	Column  string
	Message string
}

func (m Mismatch) String() string {
	return m.Column + ": " + m.Message
}

// Compare reports every difference between a parsed table and its schema.
// enc determines how text column sizes convert to characters.
func Compare(t *jet.Table, ts *TableSchema, enc format.TextEncoding) []Mismatch {
	var out []Mismatch
	add := func(col, f string, args ...any) {
		out = append(out, Mismatch{Column: col, Message: fmt.Sprintf(f, args...)})
	}

	columns := t.Columns()
	for _, c := range columns {
		cs, ok := ts.Column(c.Name)
		if !ok {
			add(c.Name, "missing from schema")
			continue
		}

		allowed, known := jetTypes[cs.JetType]
		switch {
		case !known:
			add(c.Name, "unknown jetType %q", cs.JetType)
		case !slices.Contains(allowed, c.Type):
			add(c.Name, "type %s does not store jetType %q", c.Type, cs.JetType)
		case cs.JetType == "autonumber" && c.Type == jet.ColumnTypeLong && !c.Flags.AutoLong():
			add(c.Name, "autonumber column lacks the auto-increment flag")
		}

		if cs.MaxLength > 0 && c.Type == jet.ColumnTypeText {
			chars := c.Size
			if enc == format.TextUCS2 {
				chars /= 2
			}
			if chars != cs.MaxLength {
				add(c.Name, "length %d, schema maxLength %d", chars, cs.MaxLength)
			}
		}

		if cs.Required && c.Flags.Nullable() {
			add(c.Name, "nullable but schema requires a value")
		}
	}

	for _, cs := range ts.Columns {
		if !slices.ContainsFunc(columns, func(c jet.Column) bool { return c.Name == cs.Name }) {
			add(cs.Name, "missing from table")
		}
	}
	return out
}
