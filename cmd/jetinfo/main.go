// Command jetinfo inspects Microsoft Jet and ACE database files.
// It prints header details, dumps page digests, parses table definitions,
// exports schemas to SQLite and checks them against Access XSD exports.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jedib0t/go-pretty/v6/table"
	prettytext "github.com/jedib0t/go-pretty/v6/text"

	"github.com/FocuswithJustin/jetdb/core/jet"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
	"github.com/FocuswithJustin/jetdb/internal/config"
	"github.com/FocuswithJustin/jetdb/internal/jetfile"
	"github.com/FocuswithJustin/jetdb/internal/logging"
	"github.com/FocuswithJustin/jetdb/internal/pagesel"
	"github.com/FocuswithJustin/jetdb/internal/sqlexport"
	"github.com/FocuswithJustin/jetdb/internal/xsd"
)

const version = "0.1.0"

// CLI defines the command-line interface for jetinfo.
type CLI struct {
	Config string `name:"config" short:"c" help:"YAML configuration file" type:"path" env:"JETDB_CONFIG"`

	Info    InfoCmd    `cmd:"" help:"Print database header information"`
	Pages   PagesCmd   `cmd:"" help:"List pages with their type and BLAKE3 digest"`
	Table   TableCmd   `cmd:"" help:"Parse a table definition"`
	Export  ExportCmd  `cmd:"" help:"Export table schemas to a SQLite database"`
	Verify  VerifyCmd  `cmd:"" help:"Compare table schemas with an Access XSD export"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// app carries what every command needs at run time.
type app struct {
	ctx    context.Context
	out    io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

// openDatabase loads path, decompressing it if needed, and opens it.
func (a *app) openDatabase(path string) (*jet.Database, jetfile.Compression, error) {
	data, compression, err := jetfile.Load(path)
	if err != nil {
		return nil, "", err
	}
	db, err := jet.Open(data, jet.WithLogger(a.logger))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	logging.DatabaseOpened(logging.WithDatabase(a.ctx, path), db.Format().Name, db.PageCount(), db.Encrypted(),
		"compression", string(compression))
	return db, compression, nil
}

// openTables parses each name=page pair in name order.
func (a *app) openTables(db *jet.Database, path string, specs map[string]uint32) ([]*jet.Table, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no tables given; use --table name=page")
	}
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)

	ctx := logging.WithDatabase(a.ctx, path)
	tables := make([]*jet.Table, 0, len(names))
	for _, name := range names {
		t, err := jet.NewTable(name, db, specs[name])
		if err != nil {
			logging.OperationError(ctx, "parse table", err, "table", name)
			return nil, err
		}
		logging.TableParsed(ctx, name, specs[name], t.ColumnCount(), len(t.DataPages()))
		tables = append(tables, t)
	}
	return tables, nil
}

// InfoCmd prints the database definition page.
type InfoCmd struct {
	File string `arg:"" help:"Database file (.mdb, .accdb, optionally .xz or .gz)" type:"existingfile"`
}

func (c *InfoCmd) Run(a *app) error {
	db, compression, err := a.openDatabase(c.File)
	if err != nil {
		return err
	}
	f := db.Format()

	w := newListing(a.out)
	w.AppendRow(table.Row{"File:", c.File})
	w.AppendRow(table.Row{"Compression:", compression})
	w.AppendRow(table.Row{"Format:", fmt.Sprintf("%s (0x%02x)", f.Name, byte(f.Version))})
	w.AppendRow(table.Row{"Page size:", f.PageSize})
	w.AppendRow(table.Row{"Pages:", db.PageCount()})
	w.AppendRow(table.Row{"Encrypted:", db.Encrypted()})

	if pw, ok := db.Password(); ok {
		w.AppendRow(table.Row{"Password:", pw})
	} else {
		w.AppendRow(table.Row{"Password:", "(none)"})
	}
	if created, ok := db.CreationDate(); ok {
		w.AppendRow(table.Row{"Created:", created.Format(time.RFC3339)})
	}
	so := db.DefaultSortOrder()
	w.AppendRow(table.Row{"Sort order:", fmt.Sprintf("%d (version %d)", so.Value, so.Version)})
	w.Render()
	return nil
}

// PagesCmd lists pages.
type PagesCmd struct {
	File   string `arg:"" help:"Database file" type:"existingfile"`
	Select string `short:"s" help:"Page selector, e.g. 1-4,9,12:3" default:"*"`
	Digest bool   `short:"d" help:"Print the BLAKE3 digest of each decrypted page"`
}

func (c *PagesCmd) Run(a *app) error {
	sel, err := pagesel.Parse(c.Select)
	if err != nil {
		return err
	}
	db, _, err := a.openDatabase(c.File)
	if err != nil {
		return err
	}
	numbers, err := sel.Resolve(db.PageCount())
	if err != nil {
		return err
	}

	start := time.Now()
	pages, err := db.Pages(a.ctx, numbers, a.cfg.Pages.Workers)
	if err != nil {
		return err
	}
	logging.PagesRead(logging.WithDatabase(a.ctx, c.File), len(pages), a.cfg.Pages.Workers, time.Since(start))

	w := newListing(a.out)
	for i, page := range pages {
		row := table.Row{numbers[i], format.TypeOf(page).String()}
		if c.Digest {
			row = append(row, jet.Digest(page))
		}
		w.AppendRow(row)
	}
	w.Render()
	return nil
}

// TableCmd parses one table definition.
type TableCmd struct {
	File string `arg:"" help:"Database file" type:"existingfile"`
	Name string `arg:"" help:"Table name"`
	Page uint32 `arg:"" help:"First table definition page"`
	Rows bool   `help:"Count stored rows by walking the data pages"`
}

func (c *TableCmd) Run(a *app) error {
	db, _, err := a.openDatabase(c.File)
	if err != nil {
		return err
	}
	tables, err := a.openTables(db, c.File, map[string]uint32{c.Name: c.Page})
	if err != nil {
		return err
	}
	t := tables[0]

	ps := db.Format().PageSize
	w := newListing(a.out)
	w.AppendRow(table.Row{"Table:", t.Name()})
	w.AppendRow(table.Row{"Definition:", fmt.Sprintf("%d pages from %d",
		1+max(0, len(t.DefinitionBuffer())-ps)/(ps-8), t.FirstDefinitionPage())})
	w.AppendRow(table.Row{"Rows:", t.RowCount()})
	w.AppendRow(table.Row{"Columns:", fmt.Sprintf("%d (%d fixed, %d variable)",
		t.ColumnCount(), t.FixedColumnCount(), t.VariableColumnCount())})
	w.AppendRow(table.Row{"Indexes:", fmt.Sprintf("%d logical, %d real", t.LogicalIndexCount(), t.RealIndexCount())})
	w.AppendRow(table.Row{"Data pages:", joinPages(t.DataPages())})

	if c.Rows {
		var stored int
		for _, err := range t.Rows() {
			if err != nil {
				return err
			}
			stored++
		}
		w.AppendRow(table.Row{"Stored rows:", stored})
	}
	w.Render()
	fmt.Fprintln(a.out)

	cols := table.NewWriter()
	cols.SetOutputMirror(a.out)
	cols.AppendHeader(table.Row{"Pos", "Name", "Type", "Size", "Flags"})
	for _, col := range t.Columns() {
		typ := col.Type.String()
		if col.Type == jet.ColumnTypeNumeric {
			typ = fmt.Sprintf("%s(%d,%d)", typ, col.Precision, col.Scale)
		}
		cols.AppendRow(table.Row{col.Pos, col.Name, typ, col.Size, flagNames(col.Flags)})
	}
	cols.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: prettytext.AlignRight, AlignHeader: prettytext.AlignCenter},
		{Number: 4, Align: prettytext.AlignRight, AlignHeader: prettytext.AlignCenter},
	})
	cols.Render()
	return nil
}

// newListing returns a borderless, left-aligned table for key/value blocks
// and plain listings.
func newListing(out io.Writer) table.Writer {
	style := table.StyleDefault
	style.Options = table.OptionsNoBordersAndSeparators
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = "  "

	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(style)
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: prettytext.AlignLeft},
		{Number: 2, Align: prettytext.AlignLeft},
	})
	return w
}

func joinPages(pages []uint32) string {
	if len(pages) == 0 {
		return "(none)"
	}
	s := make([]string, len(pages))
	for i, p := range pages {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ",")
}

func flagNames(f jet.ColumnFlags) string {
	var names []string
	if f.FixedLength() {
		names = append(names, "fixed")
	}
	if f.Nullable() {
		names = append(names, "nullable")
	}
	if f.AutoLong() {
		names = append(names, "autonumber")
	}
	if f.AutoUUID() {
		names = append(names, "autoguid")
	}
	if f.Hyperlink() {
		names = append(names, "hyperlink")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

// ExportCmd writes table schemas to SQLite.
type ExportCmd struct {
	File  string            `arg:"" help:"Database file" type:"existingfile"`
	Out   string            `arg:"" help:"Output SQLite database" type:"path"`
	Table map[string]uint32 `short:"t" help:"Table to export as name=page (repeatable)"`
	Force bool              `short:"f" help:"Overwrite an existing output file"`
}

func (c *ExportCmd) Run(a *app) error {
	db, _, err := a.openDatabase(c.File)
	if err != nil {
		return err
	}
	tables, err := a.openTables(db, c.File, c.Table)
	if err != nil {
		return err
	}

	exp, err := sqlexport.Create(a.ctx, c.Out, sqlexport.Options{
		Driver:    a.cfg.Export.Driver,
		Pragmas:   a.cfg.Export.Pragmas,
		Overwrite: c.Force || a.cfg.Export.Overwrite,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	defer exp.Close()

	if err := exp.Export(a.ctx, tables...); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d table(s) to %s using %s\n", len(tables), c.Out, sqlexport.GetInfo().DriverType)
	return nil
}

// VerifyCmd compares tables with an XSD schema.
type VerifyCmd struct {
	File   string            `arg:"" help:"Database file" type:"existingfile"`
	Schema string            `arg:"" help:"XSD file exported by Access" type:"existingfile"`
	Table  map[string]uint32 `short:"t" help:"Table to verify as name=page (repeatable)"`
}

func (c *VerifyCmd) Run(a *app) error {
	f, err := os.Open(c.Schema)
	if err != nil {
		return fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()
	schema, err := xsd.Parse(f)
	if err != nil {
		return err
	}

	db, _, err := a.openDatabase(c.File)
	if err != nil {
		return err
	}
	tables, err := a.openTables(db, c.File, c.Table)
	if err != nil {
		return err
	}

	var failed int
	for _, t := range tables {
		ts, err := schema.Table(t.Name())
		if err != nil {
			return err
		}
		mismatches := xsd.Compare(t, ts, db.Format().TextEncoding)
		if len(mismatches) == 0 {
			fmt.Fprintf(a.out, "%s: OK (%d columns)\n", t.Name(), t.ColumnCount())
			continue
		}
		failed++
		fmt.Fprintf(a.out, "%s: %d mismatch(es)\n", t.Name(), len(mismatches))
		for _, m := range mismatches {
			fmt.Fprintf(a.out, "  %s\n", m)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d table(s) differ from %s", failed, len(tables), c.Schema)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	info := sqlexport.GetInfo()
	fmt.Fprintf(a.out, "jetinfo version %s\n", version)
	fmt.Fprintf(a.out, "sqlite driver: %s (%s)\n", info.Package, info.DriverType)
	versions := format.Versions()
	names := make([]string, len(versions))
	for i, v := range versions {
		names[i] = v.String()
	}
	fmt.Fprintf(a.out, "formats: %s\n", strings.Join(names, ", "))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("jetinfo"),
		kong.Description("Inspect Microsoft Jet/ACE database files"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := config.Load(cli.Config)
	kctx.FatalIfErrorf(err)
	cfg.ApplyLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = kctx.Run(&app{ctx: ctx, out: os.Stdout, cfg: cfg, logger: logging.GetLogger()})
	kctx.FatalIfErrorf(err)
}
