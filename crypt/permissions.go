package crypt

import "strings"

// Permission is the user access bitmask stored in the P entry.
type Permission uint32

const (
	PermPrint            Permission = 1 << 2
	PermModify           Permission = 1 << 3
	PermCopy             Permission = 1 << 4
	PermAnnotate         Permission = 1 << 5
	PermFillForms        Permission = 1 << 8
	PermAccessibility    Permission = 1 << 9
	PermAssemble         Permission = 1 << 10
	PermPrintHighQuality Permission = 1 << 11

	PermAll = PermPrint | PermModify | PermCopy | PermAnnotate |
		PermFillForms | PermAccessibility | PermAssemble | PermPrintHighQuality
)

// Reserved bits that must be set in P
const reservedP = 0xFFFFF0C0

var permNames = []struct {
	perm Permission
	name string
}{
	{PermPrint, "print"},
	{PermModify, "modify"},
	{PermCopy, "copy"},
	{PermAnnotate, "annotate"},
	{PermFillForms, "fill-forms"},
	{PermAccessibility, "accessibility"},
	{PermAssemble, "assemble"},
	{PermPrintHighQuality, "print-high-quality"},
}

// Has reports whether every bit of q is granted.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

func (p Permission) String() string {
	var names []string
	for _, pn := range permNames {
		if p.Has(pn.perm) {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// encodeP builds the signed P value from permission bits
func encodeP(p Permission) int32 {
	return int32(uint32(p&PermAll) | reservedP)
}

// decodeP extracts the permission bits from a P value
func decodeP(p int32) Permission {
	return Permission(uint32(p)) & PermAll
}
