package domain

import (
	"encoding/json"
	"fmt"
)

// Department is the unit an asset is assigned to.
type Department string

const (
	DepartmentGeneralServices Department = "GSF"
	DepartmentIT              Department = "IT"
)

var departmentNames = map[Department]string{
	DepartmentGeneralServices: "General Services / Facilities",
	DepartmentIT:              "IT",
}

// Departments lists the known departments.
func Departments() []Department {
	return []Department{DepartmentGeneralServices, DepartmentIT}
}

// Code is the short form embedded in asset tags and stored in the database.
func (d Department) Code() string { return string(d) }

// DisplayName is the human readable label.
func (d Department) DisplayName() string { return departmentNames[d] }

func (d Department) Valid() bool {
	_, ok := departmentNames[d]
	return ok
}

// DepartmentFromCode converts a stored code. Unknown codes are an integrity error.
func DepartmentFromCode(code string) (Department, error) {
	d := Department(code)
	if !d.Valid() {
		return "", fmt.Errorf("%w: department %q", ErrUnknownCode, code)
	}
	return d, nil
}

// ParseDepartment accepts either the code or the display name.
func ParseDepartment(s string) (Department, error) {
	if d, err := DepartmentFromCode(s); err == nil {
		return d, nil
	}
	for d, name := range departmentNames {
		if name == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: department %q", ErrUnknownCode, s)
}

// MarshalJSON renders the display name.
func (d Department) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.DisplayName())
}
