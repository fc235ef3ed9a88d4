/*
Package jet reads Microsoft Jet and ACE database files (.mdb/.accdb) directly
from their bytes, without a database engine or driver.

# File Layout

A Jet file is a sequence of fixed-size pages (2048 bytes for Jet3, 4096 for
Jet4 and ACE). Page 0 is the database definition page:

	Offset  Size  Field
	------  ----  -----
	0x00    1     Page type (0x00)
	0x14    1     Format version (see package format)
	0x18    n     RC4-encrypted header region (key c7 da 39 6b)
	0x3e    4     Page encoding key (all zero when unencoded)
	0x42    20/40 Database password, masked with the creation date (Jet4+)
	0x72    8     Creation date, OLE automation double (Jet4+)

When the encoding key is non-zero every page other than page 0 is RC4
encrypted with the key LE32(page number) XOR encoding key.

# Tables

A table definition is a chain of pages of type 0x02 linked through the 32-bit
value at offset 4. Continuation pages drop their 8-byte header when the chain
is concatenated. The assembled definition holds the row and column counts,
index counts, a row reference to the table's usage map, the column records
and, after them, the column names.

# Usage

	db, err := jet.Open(data)
	if err != nil {
	    return err
	}

	table, err := jet.NewTable("Customers", db, 0x1c)
	if err != nil {
	    return err
	}

	for _, col := range table.Columns() {
	    fmt.Println(col.Name, col.Type, col.Size)
	}

# Thread Safety

Open copies its input and decrypts the header of the copy. After that neither
Database nor Table mutate any state, and all methods may be called from
multiple goroutines. Database.Pages fetches pages in parallel.

# Limitations

  - Read only
  - Row values are not decoded; Table.Data takes a RowDecoder
  - Indexes are counted but not parsed

# References

  - mdbtools HACKING notes on the Jet format
  - Jackcess format constants (JetFormat.java)
*/
package jet
