// Package row defines the fixed-schema row stored in the table and its
// on-page encoding.
//
// A row occupies exactly RowSize bytes:
//
//	[0, 4)     id        uint32, little-endian
//	[4, 36)    username  zero-padded
//	[36, 291)  email     zero-padded
package row

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	dberror "pagedb/pkg/error"
)

const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize

	// RowSize is the serialized size of every row.
	RowSize = IDSize + UsernameSize + EmailSize
)

// Row is one record of the table. ID is the B-tree key.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// New builds a validated row. The id arrives as a signed 64-bit value so that
// negative and oversized input can be reported distinctly.
func New(id int64, username, email string) (Row, error) {
	if id < 0 {
		return Row{}, dberror.New(dberror.ErrCategoryUser, dberror.CodeNegativeKey, "ID must be positive").
			WithDetail("got %d", id)
	}
	if id > math.MaxUint32 {
		return Row{}, dberror.New(dberror.ErrCategoryUser, dberror.CodeKeyOutOfRange, "ID out of range").
			WithDetail("%d exceeds %d", id, uint32(math.MaxUint32))
	}

	r := Row{ID: uint32(id), Username: username, Email: email}
	if err := r.Validate(); err != nil {
		return Row{}, err
	}
	return r, nil
}

// Validate checks that both text fields fit their columns and contain no
// zero bytes (zero is the padding byte).
func (r Row) Validate() error {
	if err := checkText("username", r.Username, UsernameSize); err != nil {
		return err
	}
	return checkText("email", r.Email, EmailSize)
}

func checkText(field, value string, capacity int) error {
	if len(value) > capacity {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeStringTooLong, "String is too long").
			WithDetail("%s is %d bytes, limit %d", field, len(value), capacity)
	}
	if idx := bytes.IndexByte([]byte(value), 0); idx >= 0 {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidText, "text contains a zero byte").
			WithDetail("%s at byte %d", field, idx)
	}
	return nil
}

// Serialize writes r into dst[:RowSize]. dst must be at least RowSize bytes;
// a shorter slice is a programming error and panics.
func Serialize(r Row, dst []byte) {
	if len(dst) < RowSize {
		panic(fmt.Sprintf("row: serialize into %d bytes, need %d", len(dst), RowSize))
	}
	binary.LittleEndian.PutUint32(dst[IDOffset:], r.ID)
	putText(dst[UsernameOffset:UsernameOffset+UsernameSize], r.Username)
	putText(dst[EmailOffset:EmailOffset+EmailSize], r.Email)
}

func putText(dst []byte, s string) {
	n := copy(dst, s)
	clear(dst[n:])
}

// Deserialize decodes a row from src[:RowSize].
func Deserialize(src []byte) Row {
	return Row{
		ID:       binary.LittleEndian.Uint32(src[IDOffset:]),
		Username: getText(src[UsernameOffset : UsernameOffset+UsernameSize]),
		Email:    getText(src[EmailOffset : EmailOffset+EmailSize]),
	}
}

func getText(src []byte) string {
	return string(bytes.TrimRight(src, "\x00"))
}

// Bytes returns a freshly allocated encoding of r.
func (r Row) Bytes() []byte {
	buf := make([]byte, RowSize)
	Serialize(r, buf)
	return buf
}

// String renders the row the way select prints it.
func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}
