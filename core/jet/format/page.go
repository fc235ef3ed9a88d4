package format

import (
	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

// PageType is the tag stored in the first byte of every page.
type PageType byte

// Page type tags.
const (
	PageTypeDatabaseDefinition PageType = 0x00
	PageTypeData               PageType = 0x01
	PageTypeTableDefinition    PageType = 0x02
	PageTypeIntermediateIndex  PageType = 0x03
	PageTypeLeafIndex          PageType = 0x04
	PageTypeUsageMap           PageType = 0x05
)

var pageTypeNames = map[PageType]string{
	PageTypeDatabaseDefinition: "database definition",
	PageTypeData:               "data",
	PageTypeTableDefinition:    "table definition",
	PageTypeIntermediateIndex:  "intermediate index",
	PageTypeLeafIndex:          "leaf index",
	PageTypeUsageMap:           "usage map",
}

// String returns the page type name, or "unknown" for unrecognized tags.
func (t PageType) String() string {
	if name, ok := pageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// TypeOf returns the type tag of a page. An empty page reports 0xFF.
func TypeOf(page []byte) PageType {
	if len(page) == 0 {
		return 0xff
	}
	return PageType(page[0])
}

// AssertPageType fails with a FormatError unless page carries the tag want.
func AssertPageType(page []byte, want PageType) error {
	if len(page) == 0 {
		return apperrors.NewFormatf("page", "empty page, expected %s page", want)
	}
	if got := PageType(page[0]); got != want {
		return apperrors.NewFormatf("page", "type tag 0x%02x (%s), expected 0x%02x (%s)",
			byte(got), got, byte(want), want)
	}
	return nil
}
