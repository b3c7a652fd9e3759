// Package assettag composes the human readable asset identifier and its
// QR rendering.
package assettag

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/asset-registry/internal/domain"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// DefaultPrefix leads every tag.
const DefaultPrefix = "CMX"

const (
	separator   = "-"
	minSegments = 5
	monthField  = 2
	yearMonth   = "0601"
)

// Parts are the inputs of a tag.
type Parts struct {
	Department domain.Department
	Type       domain.ItemType
	SubType    string
	YearMonth  string
	ID         int64
}

// Composer builds tags with a fixed prefix.
type Composer struct {
	prefix string
}

// NewComposer returns a composer for prefix, falling back to DefaultPrefix.
func NewComposer(prefix string) *Composer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Composer{prefix: prefix}
}

// Compose renders PREFIX-DEPT-YYMM-TYPE-SUBTYPE-SEQ.
func (c *Composer) Compose(p Parts) string {
	return strings.Join([]string{
		c.prefix,
		p.Department.Code(),
		p.YearMonth,
		p.Type.Code(),
		strings.ToUpper(p.SubType),
		fmt.Sprintf("%04d", p.ID),
	}, separator)
}

// YearMonth formats t as YYMM in UTC.
func YearMonth(t time.Time) string {
	return t.UTC().Format(yearMonth)
}

// ExtractYearMonth returns the issuance month recorded in an existing tag.
func ExtractYearMonth(tag string) (string, error) {
	segments := strings.Split(tag, separator)
	if len(segments) < minSegments {
		return "", apperrors.NewInvalidAssetTag(tag)
	}
	return segments[monthField], nil
}
