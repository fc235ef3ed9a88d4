package jet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
	"github.com/FocuswithJustin/jetdb/core/jet/jettest"
)

func randomPage(r *rand.Rand, size int) []byte {
	page := make([]byte, size)
	for i := range page {
		page[i] = byte(r.Uint32())
	}
	return page
}

func mustOpen(t *testing.T, b *jettest.Builder) *Database {
	t.Helper()
	db, err := Open(b.Bytes())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return db
}

func TestOpen(t *testing.T) {
	for _, v := range format.Versions() {
		t.Run(v.String(), func(t *testing.T) {
			b := jettest.New(v)
			b.AddPage(nil)
			db := mustOpen(t, b)

			if db.Format().Version != v {
				t.Errorf("Format().Version = %v, want %v", db.Format().Version, v)
			}
			if db.Encrypted() {
				t.Error("Encrypted() = true for zero encoding key")
			}
			if got := db.PageCount(); got != 2 {
				t.Errorf("PageCount() = %d, want 2", got)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	valid := jettest.New(format.VersionJet4).Bytes()

	wrongType := bytes.Clone(valid)
	wrongType[0] = byte(format.PageTypeData)

	unknownVersion := bytes.Clone(valid)
	unknownVersion[format.VersionOffset] = 0x42

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"not a database definition page", wrongType},
		{"unknown version", unknownVersion},
		{"truncated header", valid[:0x40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.buf)
			if !errors.Is(err, apperrors.ErrFormat) {
				t.Errorf("Open() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestOpenDoesNotModifyInput(t *testing.T) {
	buf := jettest.New(format.VersionJet4).Bytes()
	orig := bytes.Clone(buf)
	if _, err := Open(buf); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(buf, orig) {
		t.Error("Open() modified the caller's buffer")
	}
}

func TestPageLength(t *testing.T) {
	b := jettest.New(format.VersionJet3)
	for range 3 {
		b.AddPage([]byte{byte(format.PageTypeData)})
	}
	buf := append(b.Bytes(), make([]byte, 100)...)

	db, err := Open(buf)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := db.PageCount(); got != 5 {
		t.Fatalf("PageCount() = %d, want 5", got)
	}
	for p := uint32(0); int64(p)*int64(db.Format().PageSize) < int64(len(buf)); p++ {
		page, err := db.Page(p)
		if err != nil {
			t.Fatalf("Page(%d) error = %v", p, err)
		}
		if len(page) != db.Format().PageSize {
			t.Errorf("len(Page(%d)) = %d, want %d", p, len(page), db.Format().PageSize)
		}
	}
}

func TestPageOutOfRange(t *testing.T) {
	db := mustOpen(t, jettest.New(format.VersionJet4))
	_, err := db.Page(1)
	if !errors.Is(err, apperrors.ErrRange) {
		t.Fatalf("Page(1) error = %v, want ErrRange", err)
	}
	var re *apperrors.RangeError
	if !errors.As(err, &re) || re.Limit != 1 {
		t.Errorf("RangeError = %+v, want limit 1", re)
	}
}

func TestEncryptedPagesMatchReference(t *testing.T) {
	for _, v := range []format.Version{format.VersionJet3, format.VersionJet4, format.VersionACE17} {
		t.Run(v.String(), func(t *testing.T) {
			r := rand.New(rand.NewPCG(7, uint64(v)))
			b := jettest.New(v)
			b.EncodingKey = [4]byte{0x6b, 0x39, 0xda, 0xc7}
			for range 8 {
				b.AddPage(randomPage(r, b.PageSize()))
			}

			buf := b.Bytes()
			db := mustOpen(t, b)
			if !db.Encrypted() {
				t.Fatal("Encrypted() = false")
			}

			for n := uint32(0); n < b.NextPage(); n++ {
				got, err := db.PageDigest(n)
				if err != nil {
					t.Fatalf("PageDigest(%d) error = %v", n, err)
				}
				if want := Digest(b.Page(n)); got != want {
					t.Errorf("page %d digest = %s, want %s", n, got, want)
				}
				if n > 0 {
					ps := b.PageSize()
					raw := buf[int(n)*ps : int(n+1)*ps]
					if bytes.Equal(raw, b.Page(n)) {
						t.Errorf("page %d stored in plaintext", n)
					}
				}
			}
		})
	}
}

func TestPageZeroNeverDecrypted(t *testing.T) {
	b := jettest.New(format.VersionJet4)
	b.EncodingKey = [4]byte{1, 2, 3, 4}
	db := mustOpen(t, b)

	page, err := db.Page(0)
	if err != nil {
		t.Fatalf("Page(0) error = %v", err)
	}
	if !bytes.Equal(page, b.Page(0)) {
		t.Error("page 0 differs from its decrypted header")
	}
}

func TestFindRow(t *testing.T) {
	b := jettest.New(format.VersionJet4)
	rows := [][]byte{[]byte("first row"), []byte("second"), []byte("3")}
	n := b.AddDataPage(0,
		jettest.Row{Data: rows[0]},
		jettest.Row{Data: rows[1]},
		jettest.Row{Data: rows[2]},
	)
	db := mustOpen(t, b)

	page, err := db.Page(n)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if got := db.RecordCount(page); got != 3 {
		t.Errorf("RecordCount() = %d, want 3", got)
	}
	for slot, want := range rows {
		got, err := db.FindRow(page, slot)
		if err != nil {
			t.Fatalf("FindRow(%d) error = %v", slot, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("FindRow(%d) = %q, want %q", slot, got, want)
		}
	}

	row, err := db.FindPageRow(n<<8 | 1)
	if err != nil {
		t.Fatalf("FindPageRow() error = %v", err)
	}
	if string(row) != "second" {
		t.Errorf("FindPageRow() = %q, want %q", row, "second")
	}
}

func TestFindRowSlotZeroEndsAtPageSize(t *testing.T) {
	b := jettest.New(format.VersionJet3)
	n := b.AddDataPage(0, jettest.Row{Data: []byte("tail")})
	db := mustOpen(t, b)
	page, _ := db.Page(n)

	row, err := db.FindRow(page, 0)
	if err != nil {
		t.Fatalf("FindRow() error = %v", err)
	}
	ps := db.Format().PageSize
	if !bytes.Equal(row, page[ps-4:ps]) {
		t.Errorf("slot 0 = %q, want last 4 bytes of the page", row)
	}
}

func TestFindRowRandomSlotTables(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	for iter := range 50 {
		b := jettest.New(format.VersionJet4)
		count := 1 + r.IntN(60)
		rows := make([]jettest.Row, count)
		for i := range rows {
			rows[i] = jettest.Row{Data: randomPage(r, r.IntN(50))}
		}
		n := b.AddDataPage(0, rows...)
		db := mustOpen(t, b)
		page, _ := db.Page(n)

		for slot := range count {
			start, end, err := db.rowBounds(page, slot)
			if err != nil {
				t.Fatalf("iteration %d: rowBounds(%d) error = %v", iter, slot, err)
			}
			if start > end {
				t.Fatalf("iteration %d: slot %d start %d > end %d", iter, slot, start, end)
			}
			if slot == 0 && end != db.Format().PageSize {
				t.Fatalf("iteration %d: slot 0 ends at %d", iter, end)
			}
			if !bytes.Equal(page[start:end], rows[slot].Data) {
				t.Fatalf("iteration %d: slot %d content mismatch", iter, slot)
			}
		}
	}
}

func TestFindRowErrors(t *testing.T) {
	b := jettest.New(format.VersionJet4)
	n := b.AddDataPage(0, jettest.Row{Data: []byte("a")}, jettest.Row{Data: []byte("b")})
	db := mustOpen(t, b)
	page, _ := db.Page(n)

	corrupt := bytes.Clone(page)
	// slot 1 starts at 4096, past the start of slot 0
	corrupt[db.Format().DataPage.RecordCountOffset+4] = 0x00
	corrupt[db.Format().DataPage.RecordCountOffset+5] = 0x10

	tests := []struct {
		name string
		page []byte
		slot int
	}{
		{"negative slot", page, -1},
		{"slot past page", page, db.Format().PageSize},
		{"start after end", corrupt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.FindRow(tt.page, tt.slot)
			if !errors.Is(err, apperrors.ErrRange) {
				t.Errorf("FindRow() error = %v, want ErrRange", err)
			}
		})
	}

	if _, err := db.FindPageRow(99 << 8); !errors.Is(err, apperrors.ErrRange) {
		t.Errorf("FindPageRow(missing page) error = %v, want ErrRange", err)
	}
}

func TestPassword(t *testing.T) {
	created := time.Date(2004, time.June, 1, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		name     string
		version  format.Version
		password string
		created  time.Time
		want     string
		wantOK   bool
	}{
		{"jet4 masked", format.VersionJet4, "s3cret", created, "s3cret", true},
		{"ace non-ascii", format.VersionACE14, "pässwörd", created, "pässwörd", true},
		{"jet4 no date", format.VersionJet4, "abc", time.Time{}, "abc", true},
		{"jet3 unmasked", format.VersionJet3, "legacy", time.Time{}, "legacy", true},
		{"jet4 none", format.VersionJet4, "", created, "", false},
		{"jet3 none", format.VersionJet3, "", time.Time{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := jettest.New(tt.version)
			b.Password = tt.password
			b.CreationDate = tt.created
			db := mustOpen(t, b)

			got, ok := db.Password()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Password() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCreationDate(t *testing.T) {
	want := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	b := jettest.New(format.VersionJet4)
	b.CreationDate = want
	db := mustOpen(t, b)

	got, ok := db.CreationDate()
	if !ok {
		t.Fatal("CreationDate() reported absent")
	}
	if !got.Equal(want) {
		t.Errorf("CreationDate() = %v, want %v", got, want)
	}

	jet3 := mustOpen(t, jettest.New(format.VersionJet3))
	if _, ok := jet3.CreationDate(); ok {
		t.Error("Jet3 CreationDate() reported present")
	}
}

func TestDefaultSortOrder(t *testing.T) {
	tests := []struct {
		name    string
		version format.Version
		value   uint16
		vers    byte
		want    format.SortOrder
	}{
		{"jet4 default", format.VersionJet4, 0, 0, format.GeneralLegacySortOrder},
		{"ace default", format.VersionACE16, 0, 0, format.GeneralSortOrder},
		{"jet3 default", format.VersionJet3, 0, 0, format.General97SortOrder},
		{"jet4 explicit", format.VersionJet4, 1036, 1, format.SortOrder{Value: 1036, Version: 1}},
		{"jet3 explicit keeps default version", format.VersionJet3, 1049, 0, format.SortOrder{Value: 1049, Version: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := jettest.New(tt.version)
			b.SortOrderValue = tt.value
			b.SortOrderVersion = tt.vers
			db := mustOpen(t, b)
			if got := db.DefaultSortOrder(); got != tt.want {
				t.Errorf("DefaultSortOrder() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// knownJet4Header is the first 0x98 bytes of a Jet4 page 0 as Access writes
// it: header region RC4-encrypted with c7 da 39 6b from 0x18, encoding key
// 5a a5 0f f0, password "Jet" masked with the creation date
// 2021-07-04 09:30 (OLE 44381.395833...), sort order 1033 version 1.
const knownJet4Header = "00000000000000000000000000000000" +
	"0000000001000000b56f03626108c255" +
	"eba96772433f009c7a9f90ff809a31c5" +
	"79baed30bcdfcc9d63d9e4c37b42a12f" +
	"b3be9156893774e99cfa9bf328e64e1b" +
	"8a6009397b36a8dfdfb12a5913439202" +
	"b13369cc795bcf187c2a05f17c99081f" +
	"98fcb9e5e03ec09585665f95f8d08924" +
	"8567c61f2744d2eecf65edff07c746a1" +
	"78160cede92d62d4"

// knownPage1Cipher encrypts 01 01 00 00 "JET!" 00..07 under the page 1 key
// 5b a5 0f f0.
const (
	knownPage1Cipher = "d60ccca4d977df24f5f2887a0a0a1adc"
	knownPage1Plain  = "010100004a4554210001020304050607"
)

func TestOpenKnownHeader(t *testing.T) {
	header, err := hex.DecodeString(knownJet4Header)
	if err != nil {
		t.Fatal(err)
	}
	cipher, err := hex.DecodeString(knownPage1Cipher)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 2*4096)
	copy(buf, header)
	copy(buf[4096:], cipher)

	db, err := Open(buf)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if db.Format().Version != format.VersionJet4 {
		t.Errorf("Format() = %v, want Jet4", db.Format())
	}
	if !db.Encrypted() {
		t.Error("Encrypted() = false")
	}

	if pw, ok := db.Password(); !ok || pw != "Jet" {
		t.Errorf("Password() = %q, %v; want \"Jet\", true", pw, ok)
	}
	wantCreated := time.Date(2021, time.July, 4, 9, 30, 0, 0, time.UTC)
	if got, ok := db.CreationDate(); !ok || !got.Equal(wantCreated) {
		t.Errorf("CreationDate() = %v, %v; want %v", got, ok, wantCreated)
	}
	if got := db.DefaultSortOrder(); got != (format.SortOrder{Value: 1033, Version: 1}) {
		t.Errorf("DefaultSortOrder() = %+v", got)
	}

	page, err := db.Page(1)
	if err != nil {
		t.Fatalf("Page(1) error = %v", err)
	}
	if got := hex.EncodeToString(page[:16]); got != knownPage1Plain {
		t.Errorf("Page(1)[:16] = %s, want %s", got, knownPage1Plain)
	}
}
