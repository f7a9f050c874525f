package rules

import (
	"strings"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
)

const (
	MaxPhotos          = 3
	MaxPhotosPerUpload = 3
)

const (
	FieldName      = "name"
	FieldBirthDate = "birth_date"
	FieldCountry   = "country"
	FieldPhotos    = "photos"
)

type Completeness struct {
	Missing []string
}

func (c Completeness) Complete() bool {
	return len(c.Missing) == 0
}

// EvaluateProfile lists the required fields that are still absent. A profile
// is complete once name, birth date and country are set and at least one photo
// is stored.
func EvaluateProfile(u model.User) Completeness {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, FieldName)
	}
	if u.BirthDate == nil || u.BirthDate.IsZero() {
		missing = append(missing, FieldBirthDate)
	}
	if strings.TrimSpace(u.Country) == "" {
		missing = append(missing, FieldCountry)
	}
	if u.PhotoCount < 1 {
		missing = append(missing, FieldPhotos)
	}
	return Completeness{Missing: missing}
}

// ApplyDerivedFlags re-evaluates completeness. Flags only ever move from false
// to true.
func ApplyDerivedFlags(u *model.User) {
	if u == nil {
		return
	}
	if !u.IsProfileComplete && EvaluateProfile(*u).Complete() {
		u.IsProfileComplete = true
	}
}
